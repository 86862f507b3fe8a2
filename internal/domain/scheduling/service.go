package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var validKinds = map[string]bool{
	KindConsultation: true,
	KindSurgery:      true,
	KindFollowUp:     true,
}

var validStatuses = map[string]bool{
	StatusBooked:    true,
	StatusCompleted: true,
	StatusCancelled: true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) BookAppointment(ctx context.Context, appt *Appointment) error {
	if appt.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !validKinds[appt.Kind] {
		return fmt.Errorf("invalid kind: %s", appt.Kind)
	}
	if appt.ScheduledStart.IsZero() {
		return fmt.Errorf("scheduled_start is required")
	}
	if appt.ScheduledStart.Before(time.Now().UTC()) {
		return fmt.Errorf("scheduled_start must be in the future")
	}
	appt.Status = StatusBooked
	return s.repo.CreateAppointment(ctx, appt)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("invalid status: %s", status)
	}
	return s.repo.UpdateAppointmentStatus(ctx, id, status)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListAppointments(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) CreateRequest(ctx context.Context, req *ConsultationRequest) error {
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if req.RequestedBy == "" {
		return fmt.Errorf("requested_by is required")
	}
	return s.repo.CreateRequest(ctx, req)
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*ConsultationRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *Service) ResolveRequest(ctx context.Context, id uuid.UUID) error {
	return s.repo.ResolveRequest(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, limit, offset int) ([]*ConsultationRequest, int, error) {
	return s.repo.ListRequests(ctx, limit, offset)
}

// Evidence queries registered by the patient workflow.

func (s *Service) ConsultationScheduled(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.BookedForPatient(ctx, patientID, KindConsultation)
}

func (s *Service) ConsultationCompleted(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.CompletedForPatient(ctx, patientID, KindConsultation)
}

func (s *Service) SurgeryScheduled(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.BookedForPatient(ctx, patientID, KindSurgery)
}

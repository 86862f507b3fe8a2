package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateAppointment(ctx context.Context, appt *Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error
	ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)

	CreateRequest(ctx context.Context, req *ConsultationRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*ConsultationRequest, error)
	ResolveRequest(ctx context.Context, id uuid.UUID) error
	ListRequests(ctx context.Context, limit, offset int) ([]*ConsultationRequest, int, error)

	// Evidence queries for the patient workflow.
	BookedForPatient(ctx context.Context, patientID uuid.UUID, kind string) (bool, error)
	CompletedForPatient(ctx context.Context, patientID uuid.UUID, kind string) (bool, error)
}

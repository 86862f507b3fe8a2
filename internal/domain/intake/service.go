package intake

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRecord(ctx context.Context, rec *Record) error {
	if rec.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	return s.repo.Create(ctx, rec)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetRecordByPatient(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return s.repo.GetByPatient(ctx, patientID)
}

func (s *Service) UpdateRecord(ctx context.Context, rec *Record) error {
	existing, err := s.repo.GetByID(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("intake record not found: %w", err)
	}
	if existing.Completed() {
		return fmt.Errorf("completed intake records are read-only")
	}
	return s.repo.Update(ctx, rec)
}

func (s *Service) CompleteRecord(ctx context.Context, id uuid.UUID, completedBy string) error {
	if completedBy == "" {
		return fmt.Errorf("completed_by is required")
	}
	return s.repo.Complete(ctx, id, completedBy)
}

func (s *Service) ListRecords(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// CompletedForPatient is the evidence query the patient workflow registers
// under its intake precondition key.
func (s *Service) CompletedForPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.CompletedForPatient(ctx, patientID)
}

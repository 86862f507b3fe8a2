package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validKinds = map[string]bool{
	KindProgress:  true,
	KindOperative: true,
	KindFollowUp:  true,
	KindDischarge: true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateNote(ctx context.Context, n *Note) error {
	if n.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if n.AuthorID == "" {
		return fmt.Errorf("author_id is required")
	}
	if !validKinds[n.Kind] {
		return fmt.Errorf("invalid kind: %s", n.Kind)
	}
	if strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("body is required")
	}
	return s.repo.Create(ctx, n)
}

func (s *Service) GetNote(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// FollowUpNoteExists is the evidence query the patient workflow registers
// under its follow-up precondition key.
func (s *Service) FollowUpNoteExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.ExistsForPatient(ctx, patientID, KindFollowUp)
}

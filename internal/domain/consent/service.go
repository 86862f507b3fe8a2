package consent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/lifecycle"
)

type Service struct {
	repo Repository
	exec *lifecycle.Executor
}

func NewService(repo Repository, exec *lifecycle.Executor) *Service {
	return &Service{repo: repo, exec: exec}
}

func (s *Service) CreateConsent(ctx context.Context, c *Consent, createdBy string) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if c.ProcedureName == "" {
		return fmt.Errorf("procedure_name is required")
	}
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	c.StateChangedBy = createdBy
	return s.repo.Create(ctx, c)
}

func (s *Service) GetConsent(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Transition drives the status machine and, on the SIGNED edge, stamps the
// signer onto the consent row.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.State, actor lifecycle.Actor, tc lifecycle.TransitionContext) error {
	if err := s.exec.Transition(ctx, id.String(), target, actor, tc); err != nil {
		return err
	}
	if target == StateSigned {
		if err := s.repo.RecordSignature(ctx, id, actor.ID); err != nil {
			return fmt.Errorf("record signature: %w", err)
		}
	}
	return nil
}

func (s *Service) UploadDocument(ctx context.Context, d *Document) error {
	if d.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if d.FileName == "" || d.StorageKey == "" {
		return fmt.Errorf("file_name and storage_key are required")
	}
	if d.ContentType == "" {
		d.ContentType = "application/pdf"
	}
	return s.repo.CreateDocument(ctx, d)
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

func (s *Service) ListDocumentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	return s.repo.ListDocumentsByPatient(ctx, patientID, limit, offset)
}

// SignedEvidence returns the two evidence queries the patient workflow
// combines with OR semantics: a SIGNED structured consent, or any uploaded
// consent document.
func (s *Service) SignedEvidence() (structured, document lifecycle.EvidenceFunc) {
	structured = func(ctx context.Context, entityID string, _ lifecycle.TransitionContext) (bool, error) {
		pid, err := uuid.Parse(entityID)
		if err != nil {
			return false, fmt.Errorf("invalid patient id %q: %w", entityID, err)
		}
		return s.repo.SignedForPatient(ctx, pid)
	}
	document = func(ctx context.Context, entityID string, _ lifecycle.TransitionContext) (bool, error) {
		pid, err := uuid.Parse(entityID)
		if err != nil {
			return false, fmt.Errorf("invalid patient id %q: %w", entityID, err)
		}
		return s.repo.DocumentForPatient(ctx, pid)
	}
	return structured, document
}

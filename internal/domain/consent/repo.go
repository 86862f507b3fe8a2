package consent

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consent, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consent, int, error)
	RecordSignature(ctx context.Context, id uuid.UUID, signedBy string) error

	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocumentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Document, int, error)

	// Evidence queries for the patient workflow's consent precondition.
	SignedForPatient(ctx context.Context, patientID uuid.UUID) (bool, error)
	DocumentForPatient(ctx context.Context, patientID uuid.UUID) (bool, error)
}

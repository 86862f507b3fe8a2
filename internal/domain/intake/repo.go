package intake

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	Complete(ctx context.Context, id uuid.UUID, completedBy string) error
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)

	// CompletedForPatient backs the intake_completed workflow precondition.
	CompletedForPatient(ctx context.Context, patientID uuid.UUID) (bool, error)
}

package notes

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error)

	// ExistsForPatient backs the follow_up_note workflow precondition.
	ExistsForPatient(ctx context.Context, patientID uuid.UUID, kind string) (bool, error)
}

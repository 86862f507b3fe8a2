package surgery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateCase(ctx context.Context, sc *Case) error
	GetCase(ctx context.Context, id uuid.UUID) (*Case, error)
	ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error)
	ListCasesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error)
	SetSchedule(ctx context.Context, id uuid.UUID, theater string, scheduledAt time.Time) error

	CreatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListPlansByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error)

	// PlanForCase backs the case machine's procedure_plan precondition.
	PlanForCase(ctx context.Context, caseID uuid.UUID) (bool, error)
	// PlanForPatient backs the patient lifecycle's procedure step.
	PlanForPatient(ctx context.Context, patientID uuid.UUID) (bool, error)
}

package surgery

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/lifecycle"
	"github.com/clinicore/clinicore/internal/platform/metrics"
)

// Surgical case states.
const (
	StatePlanned    lifecycle.State = "PLANNED"
	StateScheduled  lifecycle.State = "SCHEDULED"
	StatePreOp      lifecycle.State = "PRE_OP"
	StateInProgress lifecycle.State = "IN_PROGRESS"
	StateCompleted  lifecycle.State = "COMPLETED"
	StateCancelled  lifecycle.State = "CANCELLED"
)

const AggregateType = "surgical_case"

// KeyProcedurePlan gates scheduling on a written procedure plan.
const KeyProcedurePlan lifecycle.DataKey = "procedure_plan"

func Graph() *lifecycle.Graph {
	return lifecycle.MustGraph(StatePlanned,
		[]lifecycle.State{StatePlanned, StateScheduled, StatePreOp, StateInProgress, StateCompleted, StateCancelled},
		[]lifecycle.Edge{
			{From: StatePlanned, To: StateScheduled, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"doctor", "receptionist"},
				RequiredData: []lifecycle.DataKey{KeyProcedurePlan},
			}},
			{From: StateScheduled, To: StatePreOp, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"nurse"},
			}},
			{From: StatePreOp, To: StateInProgress, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"doctor"},
			}},
			{From: StateInProgress, To: StateCompleted, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"doctor"},
			}},
			{From: StatePlanned, To: StateCancelled, Rule: lifecycle.Rule{
				AllowedRoles:   []lifecycle.Role{"doctor"},
				ReasonRequired: true,
			}},
			{From: StateScheduled, To: StateCancelled, Rule: lifecycle.Rule{
				AllowedRoles:   []lifecycle.Role{"doctor", "receptionist"},
				ReasonRequired: true,
			}},
		})
}

// NewExecutor wires the surgical-case machine. The procedure-plan
// precondition queries this domain's own plan store.
func NewExecutor(pool *pgxpool.Pool, repo Repository, roles *lifecycle.RoleValidator, m *metrics.Metrics, log zerolog.Logger) *lifecycle.Executor {
	preconds := lifecycle.NewPreconditionChecker()
	preconds.Register(KeyProcedurePlan, func(ctx context.Context, entityID string, _ lifecycle.TransitionContext) (bool, error) {
		id, err := uuid.Parse(entityID)
		if err != nil {
			return false, err
		}
		return repo.PlanForCase(ctx, id)
	})

	return lifecycle.NewExecutor(lifecycle.Config{
		Aggregate:     AggregateType,
		Graph:         Graph(),
		Roles:         roles,
		Preconditions: preconds,
		Store:         lifecycle.NewPGStore(pool, "surgical_case", AggregateType),
		Logger:        log,
		Metrics:       m,
	})
}

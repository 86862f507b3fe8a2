package orders

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/lifecycle"
	"github.com/clinicore/clinicore/internal/platform/metrics"
)

// Order states. Lab orders walk the specimen branch, prescription orders the
// dispense branch; both start at ORDERED and may be cancelled early.
const (
	StateOrdered           lifecycle.State = "ORDERED"
	StateSpecimenCollected lifecycle.State = "SPECIMEN_COLLECTED"
	StateInLab             lifecycle.State = "IN_LAB"
	StateResulted          lifecycle.State = "RESULTED"
	StateReviewed          lifecycle.State = "REVIEWED"
	StateDispensed         lifecycle.State = "DISPENSED"
	StateCompleted         lifecycle.State = "COMPLETED"
	StateCancelled         lifecycle.State = "CANCELLED"
)

const AggregateType = "order"

func Graph() *lifecycle.Graph {
	return lifecycle.MustGraph(StateOrdered,
		[]lifecycle.State{
			StateOrdered, StateSpecimenCollected, StateInLab, StateResulted,
			StateReviewed, StateDispensed, StateCompleted, StateCancelled,
		},
		[]lifecycle.Edge{
			// Lab branch
			{From: StateOrdered, To: StateSpecimenCollected, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"nurse", "lab_tech"},
			}},
			{From: StateSpecimenCollected, To: StateInLab, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"lab_tech"},
			}},
			{From: StateInLab, To: StateResulted, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"lab_tech"},
			}},
			{From: StateResulted, To: StateReviewed, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"doctor"},
			}},

			// Prescription branch
			{From: StateOrdered, To: StateDispensed, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"pharmacist"},
			}},
			{From: StateDispensed, To: StateCompleted, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"pharmacist", "doctor"},
			}},

			// Cancellation, only before lab work starts
			{From: StateOrdered, To: StateCancelled, Rule: lifecycle.Rule{
				AllowedRoles:   []lifecycle.Role{"doctor", "nurse"},
				ReasonRequired: true,
			}},
			{From: StateSpecimenCollected, To: StateCancelled, Rule: lifecycle.Rule{
				AllowedRoles:   []lifecycle.Role{"doctor", "nurse"},
				ReasonRequired: true,
			}},
		})
}

func NewExecutor(pool *pgxpool.Pool, roles *lifecycle.RoleValidator, m *metrics.Metrics, log zerolog.Logger) *lifecycle.Executor {
	return lifecycle.NewExecutor(lifecycle.Config{
		Aggregate:     AggregateType,
		Graph:         Graph(),
		Roles:         roles,
		Preconditions: lifecycle.NewPreconditionChecker(),
		Store:         lifecycle.NewPGStore(pool, "clinical_order", AggregateType),
		Logger:        log,
		Metrics:       m,
	})
}

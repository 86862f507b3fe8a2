package consent

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/lifecycle"
	"github.com/clinicore/clinicore/internal/platform/metrics"
)

// Consent states.
const (
	StateDraft    lifecycle.State = "DRAFT"
	StateSent     lifecycle.State = "SENT"
	StateSigned   lifecycle.State = "SIGNED"
	StateDeclined lifecycle.State = "DECLINED"
	StateRevoked  lifecycle.State = "REVOKED"
	StateExpired  lifecycle.State = "EXPIRED"
)

const AggregateType = "consent"

// Graph returns the consent status machine. EXPIRED is reached only by the
// scheduled expiry sweep, never by a person.
func Graph() *lifecycle.Graph {
	return lifecycle.MustGraph(StateDraft,
		[]lifecycle.State{StateDraft, StateSent, StateSigned, StateDeclined, StateRevoked, StateExpired},
		[]lifecycle.Edge{
			{From: StateDraft, To: StateSent, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"doctor", "receptionist"},
			}},
			{From: StateSent, To: StateSigned, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"patient", "doctor"},
			}},
			{From: StateSent, To: StateDeclined, Rule: lifecycle.Rule{
				AllowedRoles: []lifecycle.Role{"patient"},
			}},
			{From: StateSigned, To: StateRevoked, Rule: lifecycle.Rule{
				AllowedRoles:   []lifecycle.Role{"patient"},
				ReasonRequired: true,
			}},
			{From: StateSent, To: StateExpired, Rule: lifecycle.Rule{
				ReasonRequired: true,
			}},
		})
}

// NewExecutor wires the consent machine to the shared lifecycle store.
func NewExecutor(pool *pgxpool.Pool, roles *lifecycle.RoleValidator, m *metrics.Metrics, log zerolog.Logger) *lifecycle.Executor {
	return lifecycle.NewExecutor(lifecycle.Config{
		Aggregate:     AggregateType,
		Graph:         Graph(),
		Roles:         roles,
		Preconditions: lifecycle.NewPreconditionChecker(),
		Store:         lifecycle.NewPGStore(pool, "consent", AggregateType),
		Logger:        log,
		Metrics:       m,
	})
}

package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/lifecycle"
	"github.com/clinicore/clinicore/internal/platform/metrics"
)

// Patient care-journey states.
const (
	StateRegistered            lifecycle.State = "REGISTERED"
	StateIntakeCompleted       lifecycle.State = "INTAKE_COMPLETED"
	StateConsultationRequested lifecycle.State = "CONSULTATION_REQUESTED"
	StateConsultationScheduled lifecycle.State = "CONSULTATION_SCHEDULED"
	StateConsultationCompleted lifecycle.State = "CONSULTATION_COMPLETED"
	StateProcedurePlanned      lifecycle.State = "PROCEDURE_PLANNED"
	StateConsentSigned         lifecycle.State = "CONSENT_SIGNED"
	StateSurgeryScheduled      lifecycle.State = "SURGERY_SCHEDULED"
	StateAdmitted              lifecycle.State = "ADMITTED"
	StateInSurgery             lifecycle.State = "IN_SURGERY"
	StateRecovery              lifecycle.State = "RECOVERY"
	StateFollowUp              lifecycle.State = "FOLLOW_UP"
	StateDischarged            lifecycle.State = "DISCHARGED"
	StateTransferred           lifecycle.State = "TRANSFERRED"
	StateDeceased              lifecycle.State = "DECEASED"
	StateInactive              lifecycle.State = "INACTIVE"
)

// Precondition keys. Each is answered by a collaborating subsystem's
// evidence query; see Evidence.
const (
	KeyIntakeCompleted       lifecycle.DataKey = "intake_completed"
	KeyConsultationScheduled lifecycle.DataKey = "consultation_scheduled"
	KeyConsultationCompleted lifecycle.DataKey = "consultation_completed"
	KeyProcedurePlanned      lifecycle.DataKey = "procedure_planned"
	KeyConsentSigned         lifecycle.DataKey = "consent_signed"
	KeySurgeryScheduled      lifecycle.DataKey = "surgery_scheduled"
	KeyFollowUpNote          lifecycle.DataKey = "follow_up_note"
)

const AggregateType = "patient"

// Graph returns the patient care-journey machine. The main path is linear
// from REGISTERED to DISCHARGED; TRANSFERRED, DECEASED and INACTIVE are the
// other terminals. DECEASED edges are system-only and always carry a reason.
func Graph() *lifecycle.Graph {
	states := []lifecycle.State{
		StateRegistered, StateIntakeCompleted, StateConsultationRequested,
		StateConsultationScheduled, StateConsultationCompleted, StateProcedurePlanned,
		StateConsentSigned, StateSurgeryScheduled, StateAdmitted, StateInSurgery,
		StateRecovery, StateFollowUp, StateDischarged, StateTransferred,
		StateDeceased, StateInactive,
	}

	edges := []lifecycle.Edge{
		{From: StateRegistered, To: StateIntakeCompleted, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"patient", "nurse", "receptionist"},
			RequiredData: []lifecycle.DataKey{KeyIntakeCompleted},
		}},
		// Intake may be skipped when the consultation is requested directly.
		{From: StateRegistered, To: StateConsultationRequested, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"patient", "receptionist"},
		}},
		{From: StateIntakeCompleted, To: StateConsultationRequested, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"patient", "receptionist"},
		}},
		{From: StateConsultationRequested, To: StateConsultationScheduled, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"receptionist"},
			RequiredData: []lifecycle.DataKey{KeyConsultationScheduled},
		}},
		{From: StateConsultationScheduled, To: StateConsultationCompleted, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"doctor"},
			RequiredData: []lifecycle.DataKey{KeyConsultationCompleted},
		}},
		{From: StateConsultationCompleted, To: StateProcedurePlanned, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"doctor"},
			RequiredData: []lifecycle.DataKey{KeyProcedurePlanned},
		}},
		{From: StateProcedurePlanned, To: StateConsentSigned, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"patient", "doctor"},
			RequiredData: []lifecycle.DataKey{KeyConsentSigned},
		}},
		{From: StateConsentSigned, To: StateSurgeryScheduled, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"receptionist", "doctor"},
			RequiredData: []lifecycle.DataKey{KeySurgeryScheduled},
		}},
		{From: StateSurgeryScheduled, To: StateAdmitted, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"nurse", "receptionist"},
		}},
		{From: StateAdmitted, To: StateInSurgery, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"doctor", "nurse"},
		}},
		{From: StateInSurgery, To: StateRecovery, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"doctor", "nurse"},
		}},
		{From: StateRecovery, To: StateFollowUp, Rule: lifecycle.Rule{
			AllowedRoles: []lifecycle.Role{"doctor", "nurse"},
		}},
		{From: StateFollowUp, To: StateDischarged, Rule: lifecycle.Rule{
			AllowedRoles:   []lifecycle.Role{"doctor"},
			RequiredData:   []lifecycle.DataKey{KeyFollowUpNote},
			ReasonRequired: true,
		}},
	}

	// Transfer out of active inpatient care.
	for _, from := range []lifecycle.State{StateAdmitted, StateRecovery, StateFollowUp} {
		edges = append(edges, lifecycle.Edge{From: from, To: StateTransferred, Rule: lifecycle.Rule{
			AllowedRoles:   []lifecycle.Role{"doctor"},
			ReasonRequired: true,
		}})
	}

	// Death is recorded by the system principal only.
	for _, from := range []lifecycle.State{StateAdmitted, StateInSurgery, StateRecovery, StateFollowUp} {
		edges = append(edges, lifecycle.Edge{From: from, To: StateDeceased, Rule: lifecycle.Rule{
			ReasonRequired: true,
		}})
	}

	// Administrative closure before any care is delivered.
	for _, from := range []lifecycle.State{
		StateRegistered, StateIntakeCompleted, StateConsultationRequested,
		StateConsultationScheduled, StateConsultationCompleted,
	} {
		edges = append(edges, lifecycle.Edge{From: from, To: StateInactive, Rule: lifecycle.Rule{
			AllowedRoles:   []lifecycle.Role{"admin", "receptionist"},
			ReasonRequired: true,
		}})
	}

	return lifecycle.MustGraph(StateRegistered, states, edges)
}

// Check answers whether a qualifying artifact exists for the given patient.
type Check func(ctx context.Context, patientID uuid.UUID) (bool, error)

// Evidence bundles the collaborator queries backing the machine's
// precondition keys. ConsentSigned is OR-combined: either a structured SIGNED
// consent or an uploaded consent document satisfies the key.
type Evidence struct {
	IntakeCompleted       Check
	ConsultationScheduled Check
	ConsultationCompleted Check
	ProcedurePlanned      Check
	ConsentSigned         []lifecycle.EvidenceFunc
	SurgeryScheduled      Check
	FollowUpNote          Check
}

func byPatient(check Check) lifecycle.EvidenceFunc {
	return func(ctx context.Context, entityID string, _ lifecycle.TransitionContext) (bool, error) {
		id, err := uuid.Parse(entityID)
		if err != nil {
			return false, err
		}
		return check(ctx, id)
	}
}

// Preconditions builds the checker for the patient machine. A consentId
// supplied in the transition context is accepted as proof of consent without
// a store round trip.
func Preconditions(ev Evidence) *lifecycle.PreconditionChecker {
	p := lifecycle.NewPreconditionChecker()
	p.Register(KeyIntakeCompleted, byPatient(ev.IntakeCompleted))
	p.Register(KeyConsultationScheduled, byPatient(ev.ConsultationScheduled))
	p.Register(KeyConsultationCompleted, byPatient(ev.ConsultationCompleted))
	p.Register(KeyProcedurePlanned, byPatient(ev.ProcedurePlanned))
	p.Register(KeyConsentSigned, lifecycle.AnyOf(ev.ConsentSigned...))
	p.AllowOverride(KeyConsentSigned, "consentId")
	p.Register(KeySurgeryScheduled, byPatient(ev.SurgeryScheduled))
	p.Register(KeyFollowUpNote, byPatient(ev.FollowUpNote))
	return p
}

// NewExecutor wires the patient machine to the shared lifecycle store.
func NewExecutor(pool *pgxpool.Pool, ev Evidence, roles *lifecycle.RoleValidator, m *metrics.Metrics, log zerolog.Logger) *lifecycle.Executor {
	return lifecycle.NewExecutor(lifecycle.Config{
		Aggregate:     AggregateType,
		Graph:         Graph(),
		Roles:         roles,
		Preconditions: Preconditions(ev),
		Store:         lifecycle.NewPGStore(pool, "patient", AggregateType),
		Logger:        log,
		Metrics:       m,
	})
}

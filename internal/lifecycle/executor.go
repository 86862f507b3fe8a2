package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/metrics"
)

// Snapshot is the executor's view of an aggregate's lifecycle fields.
type Snapshot struct {
	EntityID  string
	State     State
	Version   int
	ChangedAt time.Time
	ChangedBy string
}

// Commit bundles everything a successful transition persists atomically.
type Commit struct {
	EntityID    string
	FromState   State
	ToState     State
	// BaseVersion is the version observed when the aggregate was loaded;
	// the store's conditional update re-reads and re-checks it inside the
	// transaction.
	BaseVersion int
	ActorID     string
	Record      TransitionRecord
	Event       DomainEvent
	Audit       AuditEntry
}

// Store persists lifecycle state. Commit must apply the state update, the
// transition record, the domain event, and the audit entry in a single
// transaction, failing with ConflictError when the version check loses.
type Store interface {
	Load(ctx context.Context, entityID string) (*Snapshot, error)
	Commit(ctx context.Context, c *Commit) error
	History(ctx context.Context, entityID string, limit, offset int) ([]TransitionRecord, int, error)
}

// Executor orchestrates transition validation and atomic persistence for one
// aggregate type.
type Executor struct {
	aggregate string
	graph     *Graph
	roles     *RoleValidator
	preconds  *PreconditionChecker
	store     Store
	log       zerolog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Config wires an Executor. Metrics may be nil.
type Config struct {
	Aggregate     string
	Graph         *Graph
	Roles         *RoleValidator
	Preconditions *PreconditionChecker
	Store         Store
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

func NewExecutor(cfg Config) *Executor {
	preconds := cfg.Preconditions
	if preconds == nil {
		preconds = NewPreconditionChecker()
	}
	return &Executor{
		aggregate: cfg.Aggregate,
		graph:     cfg.Graph,
		roles:     cfg.Roles,
		preconds:  preconds,
		store:     cfg.Store,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Graph returns the executor's state graph.
func (e *Executor) Graph() *Graph {
	return e.graph
}

// Transition moves the aggregate to the target state. A request for the
// current state is a permitted no-op that writes nothing. Rejected attempts
// leave the aggregate exactly as it was and produce no record, event, or
// audit entry.
func (e *Executor) Transition(ctx context.Context, entityID string, target State, actor Actor, tc TransitionContext) error {
	err := e.transition(ctx, entityID, target, actor, tc)
	if err != nil {
		e.metrics.RecordTransition(e.aggregate, Kind(err))
		if _, ok := err.(*ConflictError); ok {
			e.metrics.RecordConflict(e.aggregate)
		}
		e.log.Warn().
			Err(err).
			Str("aggregate", e.aggregate).
			Str("entity_id", entityID).
			Str("target", string(target)).
			Str("actor_id", actor.ID).
			Msg("transition rejected")
		return err
	}
	e.metrics.RecordTransition(e.aggregate, "success")
	return nil
}

func (e *Executor) transition(ctx context.Context, entityID string, target State, actor Actor, tc TransitionContext) error {
	snap, err := e.store.Load(ctx, entityID)
	if err != nil {
		return err
	}

	// Same-state request is a permitted no-op, before any other check.
	if target == snap.State {
		return nil
	}

	rule, err := e.checkEdge(snap.State, target)
	if err != nil {
		return err
	}

	role, err := e.checkRole(ctx, actor, rule)
	if err != nil {
		return err
	}

	if err := e.preconds.Check(ctx, entityID, rule.RequiredData, tc); err != nil {
		return err
	}

	if rule.ReasonRequired && strings.TrimSpace(tc.Reason) == "" {
		return &ValidationError{Msg: "a reason is required for this transition"}
	}

	commit := e.buildCommit(snap, target, actor.ID, role, tc)
	if err := e.store.Commit(ctx, commit); err != nil {
		return err
	}

	e.log.Info().
		Str("aggregate", e.aggregate).
		Str("entity_id", entityID).
		Str("from", string(snap.State)).
		Str("to", string(target)).
		Str("actor_id", actor.ID).
		Str("actor_role", string(role)).
		Msg("transition committed")

	return nil
}

func (e *Executor) checkEdge(from, target State) (Rule, error) {
	rule, ok := e.graph.RuleFor(from, target)
	if !ok {
		return Rule{}, &InvalidTransitionError{
			From:    from,
			To:      target,
			Allowed: e.graph.AllowedNext(from),
		}
	}
	return rule, nil
}

// checkRole authorizes the actor for the edge and returns the effective role
// recorded in the history. The system principal may execute any edge; a
// human actor needs the claimed role to be real and listed on the edge.
func (e *Executor) checkRole(ctx context.Context, actor Actor, rule Rule) (Role, error) {
	if actor.IsSystem() {
		return Role(SystemActorID), nil
	}

	if len(rule.AllowedRoles) == 0 {
		return "", &UnauthorizedError{ActorID: actor.ID, Claimed: actor.Role}
	}

	actual, err := e.roles.Validate(ctx, actor.ID, actor.Role)
	if err != nil {
		return "", err
	}

	if !rule.allowsRole(actor.Role) {
		return "", &UnauthorizedError{
			ActorID:  actor.ID,
			Claimed:  actor.Role,
			Required: rule.AllowedRoles,
			Actual:   actual,
		}
	}
	return actor.Role, nil
}

func (e *Executor) buildCommit(snap *Snapshot, target State, actorID string, role Role, tc TransitionContext) *Commit {
	now := e.now()

	record := TransitionRecord{
		ID:            uuid.New(),
		EntityID:      snap.EntityID,
		AggregateType: e.aggregate,
		FromState:     snap.State,
		ToState:       target,
		ActorID:       actorID,
		ActorRole:     role,
		Reason:        tc.Reason,
		Context:       tc.Refs,
		IPAddress:     tc.IPAddress,
		UserAgent:     tc.UserAgent,
		CorrelationID: tc.CorrelationID,
		CreatedAt:     now,
	}

	event := DomainEvent{
		ID:            uuid.New(),
		EventType:     e.aggregate + ".state_changed",
		AggregateID:   snap.EntityID,
		AggregateType: e.aggregate,
		Payload: map[string]string{
			"from_state": string(snap.State),
			"to_state":   string(target),
			"actor_id":   actorID,
			"actor_role": string(role),
		},
		CausationID:   record.ID.String(),
		CorrelationID: tc.CorrelationID,
		OccurredAt:    now,
	}
	event.ContentHash = event.ComputeContentHash()

	audit := AuditEntry{
		ID:            uuid.New(),
		ActorID:       actorID,
		ResourceType:  e.aggregate,
		ResourceID:    snap.EntityID,
		Action:        "state_transition",
		Reason:        tc.Reason,
		SensitiveData: true,
		Success:       true,
		IPAddress:     tc.IPAddress,
		ClientInfo:    tc.ClientInfo,
		CreatedAt:     now,
	}

	return &Commit{
		EntityID:    snap.EntityID,
		FromState:   snap.State,
		ToState:     target,
		BaseVersion: snap.Version,
		ActorID:     actorID,
		Record:      record,
		Event:       event,
		Audit:       audit,
	}
}

// CurrentState returns the aggregate's current lifecycle state.
func (e *Executor) CurrentState(ctx context.Context, entityID string) (State, error) {
	snap, err := e.store.Load(ctx, entityID)
	if err != nil {
		return "", err
	}
	return snap.State, nil
}

// AllowedNextStates returns the legal targets from the aggregate's current
// state.
func (e *Executor) AllowedNextStates(ctx context.Context, entityID string) ([]State, error) {
	snap, err := e.store.Load(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return e.graph.AllowedNext(snap.State), nil
}

// CanTransition is a dry run of the validation pipeline that collapses every
// error kind to false. It exists for UI affordances only and must never be
// used for authorization decisions.
func (e *Executor) CanTransition(ctx context.Context, entityID string, target State, actor Actor, tc TransitionContext) bool {
	snap, err := e.store.Load(ctx, entityID)
	if err != nil {
		return false
	}
	if target == snap.State {
		return true
	}
	rule, err := e.checkEdge(snap.State, target)
	if err != nil {
		return false
	}
	if _, err := e.checkRole(ctx, actor, rule); err != nil {
		return false
	}
	if err := e.preconds.Check(ctx, entityID, rule.RequiredData, tc); err != nil {
		return false
	}
	if rule.ReasonRequired && strings.TrimSpace(tc.Reason) == "" {
		return false
	}
	return true
}

// History returns the aggregate's transition records, newest first, with the
// total count for pagination.
func (e *Executor) History(ctx context.Context, entityID string, limit, offset int) ([]TransitionRecord, int, error) {
	return e.store.History(ctx, entityID, limit, offset)
}

// Package lifecycle implements the clinical workflow state-transition engine.
// Each clinical aggregate (patient, consent, order, surgical case) declares a
// fixed graph of legal state transitions with per-edge rules: which roles may
// execute the edge, what evidence must exist beforehand, and whether a reason
// is mandatory. The executor validates a requested transition against the
// graph, re-derives the actor's roles from the authoritative store, checks
// preconditions, and commits the new state together with an append-only
// transition record, a domain event, and an audit entry in one transaction
// guarded by optimistic concurrency.
package lifecycle

import "strings"

// State is a lifecycle state of an aggregate.
type State string

// Role is a clinical role an actor may hold.
type Role string

// DataKey names a precondition whose existence must be proven before a
// transition is allowed.
type DataKey string

// SystemActorID is the reserved principal for automated transitions. It is
// never assigned to a human user.
const SystemActorID = "system"

// Actor identifies who requests a transition. Role is the caller-claimed role
// and is advisory only; the executor re-validates it against the
// role-assignment store.
type Actor struct {
	ID   string
	Role Role
}

// IsSystem reports whether the actor is the reserved system principal.
func (a Actor) IsSystem() bool {
	return a.ID == SystemActorID
}

// TransitionContext carries the optional correlation data a caller supplies
// with a transition request.
type TransitionContext struct {
	Reason        string
	CorrelationID string
	IPAddress     string
	UserAgent     string
	ClientInfo    string
	// Refs holds caller-supplied artifact ids (consentId, appointmentId, ...)
	// keyed by their wire names.
	Refs map[string]string
}

// Ref returns the caller-supplied artifact id for the given key, if any.
func (tc TransitionContext) Ref(key string) (string, bool) {
	v, ok := tc.Refs[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

package lifecycle

import (
	"fmt"
	"strings"
)

// NotFoundError indicates the aggregate does not exist.
type NotFoundError struct {
	EntityID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %s not found", e.EntityID)
}

// InvalidTransitionError indicates the requested edge is not in the state
// graph, or the origin state is terminal. Allowed lists the legal targets
// from the current state.
type InvalidTransitionError struct {
	From    State
	To      State
	Allowed []State
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("no transition from terminal state %s", e.From)
	}
	targets := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		targets[i] = string(s)
	}
	return fmt.Sprintf("transition %s -> %s is not allowed; allowed targets: %s",
		e.From, e.To, strings.Join(targets, ", "))
}

// UnauthorizedError indicates the actor may not execute the edge. The message
// reveals only the required role set, never the actor's actual roles.
type UnauthorizedError struct {
	ActorID  string
	Claimed  Role
	Required []Role
	// Actual holds the actor's real roles for logging; it is not part of the
	// error message.
	Actual []Role
}

func (e *UnauthorizedError) Error() string {
	if len(e.Required) == 0 {
		return fmt.Sprintf("actor %s does not hold role %s", e.ActorID, e.Claimed)
	}
	roles := make([]string, len(e.Required))
	for i, r := range e.Required {
		roles[i] = string(r)
	}
	return fmt.Sprintf("role %s may not execute this transition; required: %s",
		e.Claimed, strings.Join(roles, " or "))
}

// MissingDataError reports every unmet precondition in one error so the
// caller receives the complete remediation list.
type MissingDataError struct {
	Keys []DataKey
}

func (e *MissingDataError) Error() string {
	keys := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		keys[i] = string(k)
	}
	return fmt.Sprintf("missing required data: %s", strings.Join(keys, ", "))
}

// ValidationError indicates malformed or incomplete transition input, such as
// an absent reason on a reason-required edge.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ConflictError indicates an optimistic-concurrency collision; the caller
// must reload the aggregate and retry.
type ConflictError struct {
	EntityID string
	Version  int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("entity %s was modified concurrently (version %d)", e.EntityID, e.Version)
}

// Kind returns a short machine-readable label for a lifecycle error, used for
// metrics and logging. Unrecognized errors yield "internal".
func Kind(err error) string {
	switch err.(type) {
	case *NotFoundError:
		return "not_found"
	case *InvalidTransitionError:
		return "invalid_transition"
	case *UnauthorizedError:
		return "unauthorized"
	case *MissingDataError:
		return "missing_data"
	case *ValidationError:
		return "validation"
	case *ConflictError:
		return "conflict"
	default:
		return "internal"
	}
}

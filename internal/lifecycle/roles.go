package lifecycle

import (
	"context"
	"fmt"
)

// RoleStore is the authoritative source of an actor's active role
// assignments. The identity domain provides the production implementation.
type RoleStore interface {
	ActiveRoles(ctx context.Context, actorID string) ([]Role, error)
}

// RoleValidator re-derives an actor's real roles at call time. The
// caller-supplied role is advisory only: authorizing off it without
// re-validation would let any caller claim any role.
type RoleValidator struct {
	store RoleStore
}

func NewRoleValidator(store RoleStore) *RoleValidator {
	return &RoleValidator{store: store}
}

// Validate checks that the actor actually holds the claimed role and returns
// the actor's full active role set.
func (v *RoleValidator) Validate(ctx context.Context, actorID string, claimed Role) ([]Role, error) {
	actual, err := v.store.ActiveRoles(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("derive roles for %s: %w", actorID, err)
	}

	for _, r := range actual {
		if r == claimed {
			return actual, nil
		}
	}
	return nil, &UnauthorizedError{ActorID: actorID, Claimed: claimed, Actual: actual}
}

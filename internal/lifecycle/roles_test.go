package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type failingRoleStore struct{ err error }

func (f *failingRoleStore) ActiveRoles(context.Context, string) ([]Role, error) {
	return nil, f.err
}

func TestValidate_ClaimedRoleHeld(t *testing.T) {
	v := NewRoleValidator(&memRoleStore{roles: map[string][]Role{
		"u1": {"nurse", "doctor"},
	}})

	actual, err := v.Validate(context.Background(), "u1", "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actual) != 2 {
		t.Errorf("expected full active role set, got %v", actual)
	}
}

func TestValidate_ClaimedRoleNotHeld(t *testing.T) {
	v := NewRoleValidator(&memRoleStore{roles: map[string][]Role{
		"u1": {"nurse"},
	}})

	_, err := v.Validate(context.Background(), "u1", "doctor")
	unauthorized, ok := err.(*UnauthorizedError)
	if !ok {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
	if unauthorized.Claimed != "doctor" {
		t.Errorf("expected claimed role in the error, got %q", unauthorized.Claimed)
	}
}

func TestValidate_UnknownActor(t *testing.T) {
	v := NewRoleValidator(&memRoleStore{roles: map[string][]Role{}})

	if _, err := v.Validate(context.Background(), "ghost", "doctor"); err == nil {
		t.Fatal("expected error for actor with no role assignments")
	}
}

func TestValidate_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	v := NewRoleValidator(&failingRoleStore{err: storeErr})

	_, err := v.Validate(context.Background(), "u1", "doctor")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

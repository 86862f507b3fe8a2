package lifecycle

import (
	"context"
	"errors"
	"testing"
)

func evidence(found bool, err error) EvidenceFunc {
	return func(context.Context, string, TransitionContext) (bool, error) {
		return found, err
	}
}

func TestCheck_AllKeysSatisfied(t *testing.T) {
	p := NewPreconditionChecker()
	p.Register("a", evidence(true, nil))
	p.Register("b", evidence(true, nil))

	err := p.Check(context.Background(), "e1", []DataKey{"a", "b"}, TransitionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_CollectsAllMissingKeys(t *testing.T) {
	p := NewPreconditionChecker()
	p.Register("a", evidence(false, nil))
	p.Register("b", evidence(true, nil))
	p.Register("c", evidence(false, nil))

	err := p.Check(context.Background(), "e1", []DataKey{"a", "b", "c"}, TransitionContext{})
	missing, ok := err.(*MissingDataError)
	if !ok {
		t.Fatalf("expected MissingDataError, got %v", err)
	}
	if len(missing.Keys) != 2 || missing.Keys[0] != "a" || missing.Keys[1] != "c" {
		t.Errorf("expected missing [a c], got %v", missing.Keys)
	}
}

func TestCheck_UnregisteredKeyFailsClosed(t *testing.T) {
	p := NewPreconditionChecker()

	err := p.Check(context.Background(), "e1", []DataKey{"never_registered"}, TransitionContext{})
	missing, ok := err.(*MissingDataError)
	if !ok {
		t.Fatalf("expected MissingDataError, got %v", err)
	}
	if len(missing.Keys) != 1 || missing.Keys[0] != "never_registered" {
		t.Errorf("unexpected keys: %v", missing.Keys)
	}
}

func TestCheck_QueryErrorPropagates(t *testing.T) {
	p := NewPreconditionChecker()
	queryErr := errors.New("store unavailable")
	p.Register("a", evidence(false, queryErr))

	err := p.Check(context.Background(), "e1", []DataKey{"a"}, TransitionContext{})
	if !errors.Is(err, queryErr) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
	if _, ok := err.(*MissingDataError); ok {
		t.Error("a query failure must not be reported as missing data")
	}
}

func TestCheck_OverrideAcceptedAtFaceValue(t *testing.T) {
	p := NewPreconditionChecker()
	p.Register("signed_consent", evidence(false, nil))
	p.AllowOverride("signed_consent", "consentId")

	tc := TransitionContext{Refs: map[string]string{"consentId": "any-id-at-all"}}
	if err := p.Check(context.Background(), "e1", []DataKey{"signed_consent"}, tc); err != nil {
		t.Fatalf("override with a supplied ref must satisfy the key: %v", err)
	}

	// No ref supplied: falls back to the evidence query, which says no.
	err := p.Check(context.Background(), "e1", []DataKey{"signed_consent"}, TransitionContext{})
	if _, ok := err.(*MissingDataError); !ok {
		t.Fatalf("expected MissingDataError, got %v", err)
	}
}

func TestAnyOf(t *testing.T) {
	ctx := context.Background()

	found, err := AnyOf(evidence(false, nil), evidence(true, nil))(ctx, "e1", TransitionContext{})
	if err != nil || !found {
		t.Errorf("expected second query to satisfy: found=%v err=%v", found, err)
	}

	found, err = AnyOf(evidence(false, nil), evidence(false, nil))(ctx, "e1", TransitionContext{})
	if err != nil || found {
		t.Errorf("expected unsatisfied: found=%v err=%v", found, err)
	}

	queryErr := errors.New("boom")
	_, err = AnyOf(evidence(false, queryErr), evidence(true, nil))(ctx, "e1", TransitionContext{})
	if !errors.Is(err, queryErr) {
		t.Errorf("expected query error to propagate, got %v", err)
	}
}

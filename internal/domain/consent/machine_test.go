package consent

import (
	"testing"

	"github.com/clinicore/clinicore/internal/lifecycle"
)

func TestGraph_Shape(t *testing.T) {
	g := Graph()

	if g.Initial() != StateDraft {
		t.Errorf("expected initial DRAFT, got %s", g.Initial())
	}

	for _, terminal := range []lifecycle.State{StateDeclined, StateRevoked, StateExpired} {
		if !g.Terminal(terminal) {
			t.Errorf("expected %s to be terminal", terminal)
		}
	}
	if g.Terminal(StateSigned) {
		t.Error("SIGNED is not terminal; it may still be revoked")
	}

	next := g.AllowedNext(StateSent)
	want := []lifecycle.State{StateDeclined, StateExpired, StateSigned}
	if len(next) != len(want) {
		t.Fatalf("unexpected allowed-next from SENT: %v", next)
	}
	for i := range want {
		if next[i] != want[i] {
			t.Errorf("allowed-next[%d] = %s, want %s", i, next[i], want[i])
		}
	}
}

func TestGraph_ExpiryIsSystemOnly(t *testing.T) {
	g := Graph()

	rule, ok := g.RuleFor(StateSent, StateExpired)
	if !ok {
		t.Fatal("expected SENT -> EXPIRED edge")
	}
	if len(rule.AllowedRoles) != 0 {
		t.Errorf("expiry edge must carry no human roles, got %v", rule.AllowedRoles)
	}
	if !rule.ReasonRequired {
		t.Error("expiry edge should require a reason")
	}
}

func TestGraph_RevocationRequiresReason(t *testing.T) {
	rule, ok := Graph().RuleFor(StateSigned, StateRevoked)
	if !ok {
		t.Fatal("expected SIGNED -> REVOKED edge")
	}
	if !rule.ReasonRequired {
		t.Error("revocation should require a reason")
	}
}

package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestComputeContentHash_Deterministic(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	event := DomainEvent{
		ID:            uuid.New(),
		EventType:     "patient.state_changed",
		AggregateID:   "p1",
		AggregateType: "patient",
		Payload:       map[string]string{"from_state": "REGISTERED", "to_state": "INTAKE_COMPLETED"},
		OccurredAt:    at,
	}

	first := event.ComputeContentHash()
	second := event.ComputeContentHash()
	if first == "" || first != second {
		t.Fatalf("hash not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected hex sha256 digest, got %d chars", len(first))
	}
}

func TestComputeContentHash_IgnoresNonCanonicalFields(t *testing.T) {
	at := time.Now()
	base := DomainEvent{
		EventType:     "patient.state_changed",
		AggregateID:   "p1",
		AggregateType: "patient",
		Payload:       map[string]string{"to_state": "ADMITTED"},
		OccurredAt:    at,
	}
	other := base
	other.ID = uuid.New()
	other.CausationID = "r1"
	other.CorrelationID = "req-1"

	if base.ComputeContentHash() != other.ComputeContentHash() {
		t.Error("ids and correlation metadata must not affect the content hash")
	}
}

func TestComputeContentHash_SensitiveToPayload(t *testing.T) {
	at := time.Now()
	a := DomainEvent{EventType: "e", AggregateID: "p1", AggregateType: "patient",
		Payload: map[string]string{"to_state": "ADMITTED"}, OccurredAt: at}
	b := a
	b.Payload = map[string]string{"to_state": "DISCHARGED"}

	if a.ComputeContentHash() == b.ComputeContentHash() {
		t.Error("differing payloads must produce differing hashes")
	}
}

func TestComputeContentHash_TimezoneNormalized(t *testing.T) {
	loc := time.FixedZone("plus2", 2*60*60)
	at := time.Date(2026, 3, 14, 11, 26, 53, 0, loc)

	a := DomainEvent{EventType: "e", AggregateID: "p1", AggregateType: "patient", OccurredAt: at}
	b := a
	b.OccurredAt = at.UTC()

	if a.ComputeContentHash() != b.ComputeContentHash() {
		t.Error("equal instants in different zones must hash identically")
	}
}

package lifecycle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransitionRecord is one row of the append-only transition history. Records
// are never updated or deleted once inserted.
type TransitionRecord struct {
	ID            uuid.UUID         `json:"id"`
	EntityID      string            `json:"entity_id"`
	AggregateType string            `json:"aggregate_type"`
	FromState     State             `json:"from_state"`
	ToState       State             `json:"to_state"`
	ActorID       string            `json:"actor_id"`
	ActorRole     Role              `json:"actor_role"`
	Reason        string            `json:"reason,omitempty"`
	Context       map[string]string `json:"context,omitempty"`
	IPAddress     string            `json:"ip_address,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// DomainEvent is the immutable record of a committed transition, consumed
// asynchronously by out-of-process subscribers. ContentHash is a digest over
// the canonical serialization, giving tamper-evidence.
type DomainEvent struct {
	ID            uuid.UUID         `json:"id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Payload       map[string]string `json:"payload"`
	CausationID   string            `json:"causation_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
	ContentHash   string            `json:"content_hash"`
}

// canonicalEvent fixes the field set and order the content hash covers.
type canonicalEvent struct {
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Payload       map[string]string `json:"payload"`
	OccurredAt    string            `json:"occurred_at"`
}

// ComputeContentHash returns the SHA-256 digest of the event's canonical
// form. encoding/json marshals struct fields in declaration order and map
// keys sorted, so the serialization is deterministic.
func (e *DomainEvent) ComputeContentHash() string {
	canonical := canonicalEvent{
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Payload:       e.Payload,
		OccurredAt:    e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AuditEntry is one row of the compliance audit log.
type AuditEntry struct {
	ID            uuid.UUID `json:"id"`
	ActorID       string    `json:"actor_id"`
	ResourceType  string    `json:"resource_type"`
	ResourceID    string    `json:"resource_id"`
	Action        string    `json:"action"`
	Reason        string    `json:"reason,omitempty"`
	SensitiveData bool      `json:"accessed_sensitive_data"`
	Success       bool      `json:"success"`
	IPAddress     string    `json:"ip_address,omitempty"`
	ClientInfo    string    `json:"client_info,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

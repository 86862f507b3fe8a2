package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// pgStore persists lifecycle state for one aggregate table. Transition
// records, domain events, and audit entries share append-only tables across
// all aggregate types, keyed by (aggregate_type, entity_id).
type pgStore struct {
	pool      *pgxpool.Pool
	table     string
	aggregate string
}

// NewPGStore creates a Store over the given aggregate table. The table must
// carry the lifecycle columns {state, state_changed_at, state_changed_by,
// version}. The table name is fixed at wiring time, never caller input.
func NewPGStore(pool *pgxpool.Pool, table, aggregateType string) Store {
	return &pgStore{pool: pool, table: table, aggregate: aggregateType}
}

func (s *pgStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *pgStore) Load(ctx context.Context, entityID string) (*Snapshot, error) {
	query := fmt.Sprintf(
		`SELECT id::text, state, version, state_changed_at, state_changed_by FROM %s WHERE id::text = $1`,
		s.table)

	var snap Snapshot
	err := s.conn(ctx).QueryRow(ctx, query, entityID).
		Scan(&snap.EntityID, &snap.State, &snap.Version, &snap.ChangedAt, &snap.ChangedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{EntityID: entityID}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", s.aggregate, entityID, err)
	}
	return &snap, nil
}

// Commit applies the state update and the three append-only inserts in one
// repeatable-read transaction. The version is re-read inside the transaction
// and the update is conditioned on it; a concurrent writer surfaces either as
// zero rows affected or as a serialization failure, both mapped to
// ConflictError.
func (s *pgStore) Commit(ctx context.Context, c *Commit) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.applyState(ctx, tx, c); err != nil {
		return err
	}
	if err := s.insertRecord(ctx, tx, &c.Record); err != nil {
		return err
	}
	if err := s.insertEvent(ctx, tx, &c.Event); err != nil {
		return err
	}
	if err := s.insertAudit(ctx, tx, &c.Audit); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return &ConflictError{EntityID: c.EntityID, Version: c.BaseVersion}
		}
		return fmt.Errorf("commit transition tx: %w", err)
	}
	return nil
}

func (s *pgStore) applyState(ctx context.Context, tx pgx.Tx, c *Commit) error {
	var state State
	var version int
	query := fmt.Sprintf(`SELECT state, version FROM %s WHERE id::text = $1 FOR UPDATE`, s.table)
	err := tx.QueryRow(ctx, query, c.EntityID).Scan(&state, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{EntityID: c.EntityID}
	}
	if err != nil {
		if isSerializationFailure(err) {
			return &ConflictError{EntityID: c.EntityID, Version: c.BaseVersion}
		}
		return fmt.Errorf("reread %s %s: %w", s.aggregate, c.EntityID, err)
	}

	// The aggregate moved between the initial load and this transaction.
	if state != c.FromState || version != c.BaseVersion {
		return &ConflictError{EntityID: c.EntityID, Version: version}
	}

	update := fmt.Sprintf(`
		UPDATE %s
		SET state = $2, state_changed_at = $3, state_changed_by = $4, version = version + 1
		WHERE id::text = $1 AND version = $5`, s.table)
	tag, err := tx.Exec(ctx, update, c.EntityID, c.ToState, c.Record.CreatedAt, c.ActorID, version)
	if err != nil {
		if isSerializationFailure(err) {
			return &ConflictError{EntityID: c.EntityID, Version: version}
		}
		return fmt.Errorf("update %s state: %w", s.aggregate, err)
	}
	if tag.RowsAffected() == 0 {
		return &ConflictError{EntityID: c.EntityID, Version: version}
	}
	return nil
}

func (s *pgStore) insertRecord(ctx context.Context, tx pgx.Tx, r *TransitionRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO state_transition (id, entity_id, aggregate_type, from_state, to_state,
			actor_id, actor_role, reason, context, ip_address, user_agent, correlation_id, created_at)
		VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.EntityID, r.AggregateType, r.FromState, r.ToState,
		r.ActorID, r.ActorRole, r.Reason, r.Context, r.IPAddress, r.UserAgent, r.CorrelationID, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transition record: %w", err)
	}
	return nil
}

func (s *pgStore) insertEvent(ctx context.Context, tx pgx.Tx, e *DomainEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO domain_event (id, event_type, aggregate_id, aggregate_type, payload,
			causation_id, correlation_id, occurred_at, content_hash)
		VALUES ($1, $2, $3::uuid, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.EventType, e.AggregateID, e.AggregateType, e.Payload,
		e.CausationID, e.CorrelationID, e.OccurredAt, e.ContentHash)
	if err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}

func (s *pgStore) insertAudit(ctx context.Context, tx pgx.Tx, a *AuditEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, resource_type, resource_id, action, reason,
			accessed_sensitive_data, success, ip_address, client_info, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.ActorID, a.ResourceType, a.ResourceID, a.Action, a.Reason,
		a.SensitiveData, a.Success, a.IPAddress, a.ClientInfo, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

const recordCols = `id, entity_id::text, aggregate_type, from_state, to_state,
	actor_id, actor_role, reason, context, ip_address, user_agent, correlation_id, created_at`

func (s *pgStore) History(ctx context.Context, entityID string, limit, offset int) ([]TransitionRecord, int, error) {
	var total int
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM state_transition WHERE aggregate_type = $1 AND entity_id::text = $2`,
		s.aggregate, entityID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+recordCols+`
		FROM state_transition
		WHERE aggregate_type = $1 AND entity_id::text = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		s.aggregate, entityID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []TransitionRecord
	for rows.Next() {
		var r TransitionRecord
		err := rows.Scan(&r.ID, &r.EntityID, &r.AggregateType, &r.FromState, &r.ToState,
			&r.ActorID, &r.ActorRole, &r.Reason, &r.Context, &r.IPAddress, &r.UserAgent,
			&r.CorrelationID, &r.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transition record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history: %w", err)
	}

	return records, total, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

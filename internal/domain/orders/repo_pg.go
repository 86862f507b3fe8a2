package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, patient_id, ordered_by, kind, code, description, priority, result_summary,
	state, state_changed_at, state_changed_by, version, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	o.State = string(StateOrdered)
	o.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_order (id, patient_id, ordered_by, kind, code, description, priority, state, state_changed_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.PatientID, o.OrderedBy, o.Kind, o.Code, o.Description, o.Priority, o.State, o.StateChangedBy, o.Version,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM clinical_order WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clinical_order`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM clinical_order ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectOrders(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_order WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM clinical_order WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectOrders(rows, total)
}

func (r *repoPG) RecordResult(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE clinical_order SET result_summary = $2, updated_at = NOW() WHERE id = $1`, id, summary)
	return err
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.PatientID, &o.OrderedBy, &o.Kind, &o.Code, &o.Description, &o.Priority,
		&o.ResultSummary, &o.State, &o.StateChangedAt, &o.StateChangedBy, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows, total int) ([]*Order, int, error) {
	var result []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.PatientID, &o.OrderedBy, &o.Kind, &o.Code, &o.Description, &o.Priority,
			&o.ResultSummary, &o.State, &o.StateChangedAt, &o.StateChangedBy, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &o)
	}
	return result, total, nil
}

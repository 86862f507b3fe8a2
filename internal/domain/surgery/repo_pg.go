package surgery

import (
	"context"
	"time"

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

const caseCols = `id, patient_id, surgeon_id, procedure_name, theater, scheduled_at,
	state, state_changed_at, state_changed_by, version, created_at, updated_at`

func (r *repoPG) CreateCase(ctx context.Context, sc *Case) error {
	sc.ID = uuid.New()
	sc.State = string(StatePlanned)
	sc.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surgical_case (id, patient_id, surgeon_id, procedure_name, theater, scheduled_at, state, state_changed_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sc.ID, sc.PatientID, sc.SurgeonID, sc.ProcedureName, sc.Theater, sc.ScheduledAt, sc.State, sc.StateChangedBy, sc.Version,
	)
	return err
}

func (r *repoPG) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	return scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM surgical_case WHERE id = $1`, id))
}

func (r *repoPG) ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM surgical_case`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+caseCols+` FROM surgical_case ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCases(rows, total)
}

func (r *repoPG) ListCasesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM surgical_case WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+caseCols+` FROM surgical_case WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectCases(rows, total)
}

func (r *repoPG) SetSchedule(ctx context.Context, id uuid.UUID, theater string, scheduledAt time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE surgical_case SET theater = $2, scheduled_at = $3, updated_at = NOW() WHERE id = $1`,
		id, theater, scheduledAt)
	return err
}

func (r *repoPG) CreatePlan(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO procedure_plan (id, patient_id, case_id, procedure_name, summary, planned_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.PatientID, p.CaseID, p.ProcedureName, p.Summary, p.PlannedBy,
	)
	return err
}

func (r *repoPG) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	var p Plan
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, case_id, procedure_name, summary, planned_by, created_at
		FROM procedure_plan WHERE id = $1`, id).
		Scan(&p.ID, &p.PatientID, &p.CaseID, &p.ProcedureName, &p.Summary, &p.PlannedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) ListPlansByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM procedure_plan WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, case_id, procedure_name, summary, planned_by, created_at
		FROM procedure_plan WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.PatientID, &p.CaseID, &p.ProcedureName, &p.Summary, &p.PlannedBy, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		plans = append(plans, &p)
	}
	return plans, total, nil
}

func (r *repoPG) PlanForCase(ctx context.Context, caseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM procedure_plan WHERE case_id = $1)`, caseID).Scan(&exists)
	return exists, err
}

func (r *repoPG) PlanForPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM procedure_plan WHERE patient_id = $1)`, patientID).Scan(&exists)
	return exists, err
}

func scanCase(row pgx.Row) (*Case, error) {
	var sc Case
	err := row.Scan(&sc.ID, &sc.PatientID, &sc.SurgeonID, &sc.ProcedureName, &sc.Theater, &sc.ScheduledAt,
		&sc.State, &sc.StateChangedAt, &sc.StateChangedBy, &sc.Version, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func collectCases(rows pgx.Rows, total int) ([]*Case, int, error) {
	var cases []*Case
	for rows.Next() {
		var sc Case
		if err := rows.Scan(&sc.ID, &sc.PatientID, &sc.SurgeonID, &sc.ProcedureName, &sc.Theater, &sc.ScheduledAt,
			&sc.State, &sc.StateChangedAt, &sc.StateChangedBy, &sc.Version, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		cases = append(cases, &sc)
	}
	return cases, total, nil
}

package intake

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

const recCols = `id, patient_id, allergies, medications, medical_history, insurance_info,
	completed_by, completed_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO intake_record (id, patient_id, allergies, medications, medical_history, insurance_info, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.PatientID, rec.Allergies, rec.Medications, rec.MedicalHistory, rec.InsuranceInfo, rec.CompletedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRec(r.conn(ctx).QueryRow(ctx, `SELECT `+recCols+` FROM intake_record WHERE id = $1`, id))
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return scanRec(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recCols+` FROM intake_record WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`, patientID))
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE intake_record SET
			allergies=$2, medications=$3, medical_history=$4, insurance_info=$5, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.Allergies, rec.Medications, rec.MedicalHistory, rec.InsuranceInfo,
	)
	return err
}

func (r *repoPG) Complete(ctx context.Context, id uuid.UUID, completedBy string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE intake_record SET completed_by = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND completed_at IS NULL`,
		id, completedBy,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM intake_record`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recCols+` FROM intake_record ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.Allergies, &rec.Medications, &rec.MedicalHistory,
			&rec.InsuranceInfo, &rec.CompletedBy, &rec.CompletedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		recs = append(recs, &rec)
	}
	return recs, total, nil
}

func (r *repoPG) CompletedForPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM intake_record WHERE patient_id = $1 AND completed_at IS NOT NULL)`,
		patientID).Scan(&exists)
	return exists, err
}

func scanRec(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.Allergies, &rec.Medications, &rec.MedicalHistory,
		&rec.InsuranceInfo, &rec.CompletedBy, &rec.CompletedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

package consent

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

const consentCols = `id, patient_id, procedure_name, title, body_text, signed_by, signed_at,
	state, state_changed_at, state_changed_by, version, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	c.State = string(StateDraft)
	c.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent (id, patient_id, procedure_name, title, body_text, state, state_changed_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.PatientID, c.ProcedureName, c.Title, c.BodyText, c.State, c.StateChangedBy, c.Version,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return scanConsent(r.conn(ctx).QueryRow(ctx, `SELECT `+consentCols+` FROM consent WHERE id = $1`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consent WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consentCols+` FROM consent WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var consents []*Consent
	for rows.Next() {
		var c Consent
		if err := rows.Scan(&c.ID, &c.PatientID, &c.ProcedureName, &c.Title, &c.BodyText, &c.SignedBy, &c.SignedAt,
			&c.State, &c.StateChangedAt, &c.StateChangedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		consents = append(consents, &c)
	}
	return consents, total, nil
}

// RecordSignature fills in the signer alongside the engine's SIGNED
// transition. Runs in the same tx when one is carried in the context.
func (r *repoPG) RecordSignature(ctx context.Context, id uuid.UUID, signedBy string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE consent SET signed_by = $2, signed_at = NOW(), updated_at = NOW() WHERE id = $1`,
		id, signedBy)
	return err
}

func (r *repoPG) CreateDocument(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent_document (id, patient_id, consent_id, file_name, content_type, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.PatientID, d.ConsentID, d.FileName, d.ContentType, d.StorageKey, d.UploadedBy,
	)
	return err
}

func (r *repoPG) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var d Document
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, consent_id, file_name, content_type, storage_key, uploaded_by, created_at
		FROM consent_document WHERE id = $1`, id).
		Scan(&d.ID, &d.PatientID, &d.ConsentID, &d.FileName, &d.ContentType, &d.StorageKey, &d.UploadedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) ListDocumentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consent_document WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, consent_id, file_name, content_type, storage_key, uploaded_by, created_at
		FROM consent_document WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.PatientID, &d.ConsentID, &d.FileName, &d.ContentType,
			&d.StorageKey, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, &d)
	}
	return docs, total, nil
}

func (r *repoPG) SignedForPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM consent WHERE patient_id = $1 AND state = $2)`,
		patientID, string(StateSigned)).Scan(&exists)
	return exists, err
}

func (r *repoPG) DocumentForPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM consent_document WHERE patient_id = $1)`,
		patientID).Scan(&exists)
	return exists, err
}

func scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	err := row.Scan(&c.ID, &c.PatientID, &c.ProcedureName, &c.Title, &c.BodyText, &c.SignedBy, &c.SignedAt,
		&c.State, &c.StateChangedAt, &c.StateChangedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

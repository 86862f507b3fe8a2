package scheduling

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

const apptCols = `id, patient_id, practitioner_id, kind, status, scheduled_start, scheduled_end,
	location, notes, created_at, updated_at`

func (r *repoPG) CreateAppointment(ctx context.Context, appt *Appointment) error {
	appt.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, practitioner_id, kind, status, scheduled_start, scheduled_end, location, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		appt.ID, appt.PatientID, appt.PractitionerID, appt.Kind, appt.Status,
		appt.ScheduledStart, appt.ScheduledEnd, appt.Location, appt.Notes,
	)
	return err
}

func (r *repoPG) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointment ORDER BY scheduled_start DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAppts(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE patient_id = $1 ORDER BY scheduled_start DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAppts(rows, total)
}

func (r *repoPG) CreateRequest(ctx context.Context, req *ConsultationRequest) error {
	req.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation_request (id, patient_id, requested_by, concern)
		VALUES ($1, $2, $3, $4)`,
		req.ID, req.PatientID, req.RequestedBy, req.Concern,
	)
	return err
}

func (r *repoPG) GetRequest(ctx context.Context, id uuid.UUID) (*ConsultationRequest, error) {
	var req ConsultationRequest
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, requested_by, concern, resolved_at, created_at
		FROM consultation_request WHERE id = $1`, id).
		Scan(&req.ID, &req.PatientID, &req.RequestedBy, &req.Concern, &req.ResolvedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repoPG) ResolveRequest(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE consultation_request SET resolved_at = NOW() WHERE id = $1 AND resolved_at IS NULL`, id)
	return err
}

func (r *repoPG) ListRequests(ctx context.Context, limit, offset int) ([]*ConsultationRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultation_request`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, requested_by, concern, resolved_at, created_at
		FROM consultation_request ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []*ConsultationRequest
	for rows.Next() {
		var req ConsultationRequest
		if err := rows.Scan(&req.ID, &req.PatientID, &req.RequestedBy, &req.Concern, &req.ResolvedAt, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, &req)
	}
	return reqs, total, nil
}

func (r *repoPG) BookedForPatient(ctx context.Context, patientID uuid.UUID, kind string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointment WHERE patient_id = $1 AND kind = $2 AND status = $3)`,
		patientID, kind, StatusBooked).Scan(&exists)
	return exists, err
}

func (r *repoPG) CompletedForPatient(ctx context.Context, patientID uuid.UUID, kind string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointment WHERE patient_id = $1 AND kind = $2 AND status = $3)`,
		patientID, kind, StatusCompleted).Scan(&exists)
	return exists, err
}

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &a.Kind, &a.Status,
		&a.ScheduledStart, &a.ScheduledEnd, &a.Location, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppts(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var appts []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &a.Kind, &a.Status,
			&a.ScheduledStart, &a.ScheduledEnd, &a.Location, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		appts = append(appts, &a)
	}
	return appts, total, nil
}

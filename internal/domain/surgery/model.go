package surgery

import (
	"time"

	"github.com/google/uuid"
)

// Case maps to the surgical_case table.
type Case struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	SurgeonID      *string    `db:"surgeon_id" json:"surgeon_id,omitempty"`
	ProcedureName  string     `db:"procedure_name" json:"procedure_name"`
	Theater        *string    `db:"theater" json:"theater,omitempty"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	State          string     `db:"state" json:"state"`
	StateChangedAt time.Time  `db:"state_changed_at" json:"state_changed_at"`
	StateChangedBy string     `db:"state_changed_by" json:"state_changed_by"`
	Version        int        `db:"version" json:"version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Plan maps to the procedure_plan table. A plan must exist before a case can
// be scheduled, and its existence also gates the patient lifecycle's
// procedure step.
type Plan struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	CaseID        *uuid.UUID `db:"case_id" json:"case_id,omitempty"`
	ProcedureName string     `db:"procedure_name" json:"procedure_name"`
	Summary       string     `db:"summary" json:"summary"`
	PlannedBy     string     `db:"planned_by" json:"planned_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

package orders

import (
	"time"

	"github.com/google/uuid"
)

// Order kinds.
const (
	KindLab          = "lab"
	KindPrescription = "prescription"
)

// Order maps to the clinical_order table. Lab and prescription orders share
// the table and the status machine; the kind decides which branch of the
// graph the order walks.
type Order struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	OrderedBy      string    `db:"ordered_by" json:"ordered_by"`
	Kind           string    `db:"kind" json:"kind"`
	Code           string    `db:"code" json:"code"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Priority       string    `db:"priority" json:"priority"`
	ResultSummary  *string   `db:"result_summary" json:"result_summary,omitempty"`
	State          string    `db:"state" json:"state"`
	StateChangedAt time.Time `db:"state_changed_at" json:"state_changed_at"`
	StateChangedBy string    `db:"state_changed_by" json:"state_changed_by"`
	Version        int       `db:"version" json:"version"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

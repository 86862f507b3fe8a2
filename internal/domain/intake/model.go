package intake

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the intake_record table. One completed record per patient is
// the evidence the patient lifecycle looks for before intake-gated moves.
type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	Allergies      *string    `db:"allergies" json:"allergies,omitempty"`
	Medications    *string    `db:"medications" json:"medications,omitempty"`
	MedicalHistory *string    `db:"medical_history" json:"medical_history,omitempty"`
	InsuranceInfo  *string    `db:"insurance_info" json:"insurance_info,omitempty"`
	CompletedBy    string     `db:"completed_by" json:"completed_by"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the record has been finalized.
func (r *Record) Completed() bool {
	return r.CompletedAt != nil
}

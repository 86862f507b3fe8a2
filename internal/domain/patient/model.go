package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. The state columns track the patient's
// position in the care journey and are owned by the workflow engine.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	MRN            string     `db:"mrn" json:"mrn"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	DateOfBirth    time.Time  `db:"date_of_birth" json:"date_of_birth"`
	Gender         *string    `db:"gender" json:"gender,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	Email          *string    `db:"email" json:"email,omitempty"`
	AddressLine    *string    `db:"address_line" json:"address_line,omitempty"`
	City           *string    `db:"city" json:"city,omitempty"`
	PostalCode     *string    `db:"postal_code" json:"postal_code,omitempty"`
	State          string     `db:"state" json:"state"`
	StateChangedAt time.Time  `db:"state_changed_at" json:"state_changed_at"`
	StateChangedBy string     `db:"state_changed_by" json:"state_changed_by"`
	Version        int        `db:"version" json:"version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

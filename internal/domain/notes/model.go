package notes

import (
	"time"

	"github.com/google/uuid"
)

// Note kinds. A follow_up note is the evidence the discharge workflow
// step looks for.
const (
	KindProgress  = "progress"
	KindOperative = "operative"
	KindFollowUp  = "follow_up"
	KindDischarge = "discharge"
)

// Note maps to the clinical_note table. Notes are append-only.
type Note struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Kind      string    `db:"kind" json:"kind"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

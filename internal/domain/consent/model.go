package consent

import (
	"time"

	"github.com/google/uuid"
)

// Consent maps to the consent table. State columns are owned by the workflow
// engine; everything else is plain record data.
type Consent struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProcedureName  string     `db:"procedure_name" json:"procedure_name"`
	Title          string     `db:"title" json:"title"`
	BodyText       *string    `db:"body_text" json:"body_text,omitempty"`
	SignedBy       *string    `db:"signed_by" json:"signed_by,omitempty"`
	SignedAt       *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	State          string     `db:"state" json:"state"`
	StateChangedAt time.Time  `db:"state_changed_at" json:"state_changed_at"`
	StateChangedBy string     `db:"state_changed_by" json:"state_changed_by"`
	Version        int        `db:"version" json:"version"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Document maps to the consent_document table: an uploaded, externally signed
// consent form. Storage of the file itself is out of scope; only the pointer
// is kept.
type Document struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	ConsentID   *uuid.UUID `db:"consent_id" json:"consent_id,omitempty"`
	FileName    string     `db:"file_name" json:"file_name"`
	ContentType string     `db:"content_type" json:"content_type"`
	StorageKey  string     `db:"storage_key" json:"storage_key"`
	UploadedBy  string     `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

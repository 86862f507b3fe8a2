package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment kinds. Surgery slots are booked here too; the surgical case
// itself lives in its own domain.
const (
	KindConsultation = "consultation"
	KindSurgery      = "surgery"
	KindFollowUp     = "follow_up"
)

// Appointment statuses.
const (
	StatusBooked    = "booked"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PractitionerID *uuid.UUID `db:"practitioner_id" json:"practitioner_id,omitempty"`
	Kind           string     `db:"kind" json:"kind"`
	Status         string     `db:"status" json:"status"`
	ScheduledStart time.Time  `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd   *time.Time `db:"scheduled_end" json:"scheduled_end,omitempty"`
	Location       *string    `db:"location" json:"location,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ConsultationRequest maps to the consultation_request table. Requests are
// raised by patients or front desk and resolved by booking an appointment.
type ConsultationRequest struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	RequestedBy string     `db:"requested_by" json:"requested_by"`
	Concern     *string    `db:"concern" json:"concern,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

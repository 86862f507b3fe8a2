package identity

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the app_user table.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoleAssignment maps to the role_assignment table. Assignments are revoked,
// never deleted, so the assignment history stays intact.
type RoleAssignment struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Role       string     `db:"role" json:"role"`
	AssignedBy string     `db:"assigned_by" json:"assigned_by"`
	AssignedAt time.Time  `db:"assigned_at" json:"assigned_at"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// IsActive reports whether the assignment is currently in force.
func (a *RoleAssignment) IsActive() bool {
	return a.RevokedAt == nil
}

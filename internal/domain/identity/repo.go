package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error

	// Role assignments
	AssignRole(ctx context.Context, a *RoleAssignment) error
	RevokeRole(ctx context.Context, userID uuid.UUID, role string) error
	ListAssignments(ctx context.Context, userID uuid.UUID) ([]*RoleAssignment, error)
	ActiveRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
}

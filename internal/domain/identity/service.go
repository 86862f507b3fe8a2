package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/lifecycle"
)

// Roles known to the system. Assignments outside this set are rejected.
var validRoles = map[string]bool{
	"admin":        true,
	"doctor":       true,
	"nurse":        true,
	"receptionist": true,
	"lab_tech":     true,
	"pharmacist":   true,
	"patient":      true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if u.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	u.Active = true
	return s.repo.CreateUser(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateUser(ctx, id)
}

func (s *Service) AssignRole(ctx context.Context, a *RoleAssignment) error {
	if a.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if !validRoles[a.Role] {
		return fmt.Errorf("unknown role: %s", a.Role)
	}
	if a.AssignedBy == "" {
		return fmt.Errorf("assigned_by is required")
	}

	current, err := s.repo.ActiveRoles(ctx, a.UserID)
	if err != nil {
		return fmt.Errorf("derive current roles: %w", err)
	}
	for _, role := range current {
		if role == a.Role {
			return fmt.Errorf("role %s already assigned", a.Role)
		}
	}
	return s.repo.AssignRole(ctx, a)
}

func (s *Service) RevokeRole(ctx context.Context, userID uuid.UUID, role string) error {
	return s.repo.RevokeRole(ctx, userID, role)
}

func (s *Service) ListAssignments(ctx context.Context, userID uuid.UUID) ([]*RoleAssignment, error) {
	return s.repo.ListAssignments(ctx, userID)
}

// RoleStore adapts the repository to the workflow engine's role interface.
// The engine re-derives roles on every transition, so revocations take
// effect immediately.
type RoleStore struct {
	repo Repository
}

func NewRoleStore(repo Repository) *RoleStore {
	return &RoleStore{repo: repo}
}

func (s *RoleStore) ActiveRoles(ctx context.Context, actorID string) ([]lifecycle.Role, error) {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id %q: %w", actorID, err)
	}
	names, err := s.repo.ActiveRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	roles := make([]lifecycle.Role, len(names))
	for i, name := range names {
		roles[i] = lifecycle.Role(name)
	}
	return roles, nil
}

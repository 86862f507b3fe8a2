package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	users       map[uuid.UUID]*User
	assignments []*RoleAssignment
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) CreateUser(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (m *mockRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (m *mockRepo) ListUsers(_ context.Context, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

func (m *mockRepo) DeactivateUser(_ context.Context, id uuid.UUID) error {
	if u, ok := m.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (m *mockRepo) AssignRole(_ context.Context, a *RoleAssignment) error {
	a.ID = uuid.New()
	a.AssignedAt = time.Now()
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *mockRepo) RevokeRole(_ context.Context, userID uuid.UUID, role string) error {
	now := time.Now()
	for _, a := range m.assignments {
		if a.UserID == userID && a.Role == role && a.RevokedAt == nil {
			a.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockRepo) ListAssignments(_ context.Context, userID uuid.UUID) ([]*RoleAssignment, error) {
	var result []*RoleAssignment
	for _, a := range m.assignments {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockRepo) ActiveRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	if u, ok := m.users[userID]; ok && !u.Active {
		return nil, nil
	}
	var roles []string
	for _, a := range m.assignments {
		if a.UserID == userID && a.RevokedAt == nil {
			roles = append(roles, a.Role)
		}
	}
	return roles, nil
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var errNotFound = notFoundError{}

// -- Tests --

func TestCreateUser(t *testing.T) {
	svc := NewService(newMockRepo())

	u := &User{Email: "  Jo.Mayer@Clinic.example  ", FullName: "Jo Mayer"}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "jo.mayer@clinic.example" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if !u.Active {
		t.Error("new users should be active")
	}
}

func TestCreateUser_RequiresFields(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.CreateUser(context.Background(), &User{FullName: "Jo"}); err == nil {
		t.Error("expected error for missing email")
	}
	if err := svc.CreateUser(context.Background(), &User{Email: "jo@clinic.example"}); err == nil {
		t.Error("expected error for missing full_name")
	}
}

func TestAssignRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	u := &User{Email: "jo@clinic.example", FullName: "Jo"}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	a := &RoleAssignment{UserID: u.ID, Role: "doctor", AssignedBy: "admin-1"}
	if err := svc.AssignRole(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate active assignment
	dup := &RoleAssignment{UserID: u.ID, Role: "doctor", AssignedBy: "admin-1"}
	if err := svc.AssignRole(context.Background(), dup); err == nil {
		t.Error("expected error for duplicate role assignment")
	}

	// Unknown role
	bad := &RoleAssignment{UserID: u.ID, Role: "wizard", AssignedBy: "admin-1"}
	if err := svc.AssignRole(context.Background(), bad); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestAssignRole_AfterRevokeAllowed(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	u := &User{Email: "jo@clinic.example", FullName: "Jo"}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if err := svc.AssignRole(context.Background(), &RoleAssignment{UserID: u.ID, Role: "nurse", AssignedBy: "admin-1"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.RevokeRole(context.Background(), u.ID, "nurse"); err != nil {
		t.Fatal(err)
	}
	if err := svc.AssignRole(context.Background(), &RoleAssignment{UserID: u.ID, Role: "nurse", AssignedBy: "admin-1"}); err != nil {
		t.Errorf("re-assignment after revoke should succeed: %v", err)
	}
}

func TestRoleStore_ActiveRoles(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	store := NewRoleStore(repo)

	u := &User{Email: "jo@clinic.example", FullName: "Jo"}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if err := svc.AssignRole(context.Background(), &RoleAssignment{UserID: u.ID, Role: "doctor", AssignedBy: "admin-1"}); err != nil {
		t.Fatal(err)
	}

	roles, err := store.ActiveRoles(context.Background(), u.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || string(roles[0]) != "doctor" {
		t.Errorf("unexpected roles: %v", roles)
	}

	if _, err := store.ActiveRoles(context.Background(), "not-a-uuid"); err == nil {
		t.Error("expected error for malformed actor id")
	}
}

func TestRoleStore_DeactivatedUserHasNoRoles(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	store := NewRoleStore(repo)

	u := &User{Email: "jo@clinic.example", FullName: "Jo"}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if err := svc.AssignRole(context.Background(), &RoleAssignment{UserID: u.ID, Role: "doctor", AssignedBy: "admin-1"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeactivateUser(context.Background(), u.ID); err != nil {
		t.Fatal(err)
	}

	roles, err := store.ActiveRoles(context.Background(), u.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 0 {
		t.Errorf("deactivated user should derive no roles, got %v", roles)
	}
}

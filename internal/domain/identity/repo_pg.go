package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `id, email, full_name, active, created_at, updated_at`

func (r *repoPG) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO app_user (id, email, full_name, active)
		VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.FullName, u.Active,
	)
	return err
}

func (r *repoPG) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *repoPG) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE email = $1`, email))
}

func (r *repoPG) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM app_user ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	return users, total, nil
}

func (r *repoPG) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE app_user SET active = false, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) AssignRole(ctx context.Context, a *RoleAssignment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO role_assignment (id, user_id, role, assigned_by)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.UserID, a.Role, a.AssignedBy,
	)
	return err
}

func (r *repoPG) RevokeRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE role_assignment SET revoked_at = NOW()
		WHERE user_id = $1 AND role = $2 AND revoked_at IS NULL`,
		userID, role,
	)
	return err
}

func (r *repoPG) ListAssignments(ctx context.Context, userID uuid.UUID) ([]*RoleAssignment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, user_id, role, assigned_by, assigned_at, revoked_at
		FROM role_assignment WHERE user_id = $1 ORDER BY assigned_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*RoleAssignment
	for rows.Next() {
		var a RoleAssignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.Role, &a.AssignedBy, &a.AssignedAt, &a.RevokedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}
	return assignments, nil
}

// ActiveRoles joins on the user row so roles of a deactivated user derive to
// an empty set without a separate lookup.
func (r *repoPG) ActiveRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ra.role
		FROM role_assignment ra
		JOIN app_user u ON u.id = ra.user_id
		WHERE ra.user_id = $1 AND ra.revoked_at IS NULL AND u.active
		ORDER BY ra.role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

package store

import (
	"context"
	"fmt"
	"strings"

	"rxdesk/m/domain"
)

const userColumns = `id, username, email, password, role, created_at`

// CreateUser inserts u, lower-casing the email. A taken email is a conflict.
func (q *Queries) CreateUser(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	existing, err := q.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ConflictError("email already exists")
	}
	u.CreatedAt = q.Now()
	id, err := q.insert(ctx, `INSERT INTO users (username, email, password, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Password, u.Role, u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ConflictError("email already exists")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// GetUser returns nil when the user does not exist.
func (q *Queries) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := getOne[domain.User](ctx, q, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := getOne[domain.User](ctx, q, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsers lists users ordered by username, optionally restricted to a role.
func (q *Queries) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY username`

	users := []domain.User{}
	if err := q.selectAll(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdatePassword stores a new password hash.
func (q *Queries) UpdatePassword(ctx context.Context, id int64, hash string) error {
	n, err := q.exec(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return domain.NotFound("user", id)
	}
	return nil
}

// RoleExists reports whether any user holds role.
func (q *Queries) RoleExists(ctx context.Context, role string) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = ?`, role); err != nil {
		return false, fmt.Errorf("count users by role: %w", err)
	}
	return n > 0, nil
}

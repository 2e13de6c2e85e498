package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sprintlite/pkg/utils"
)

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
//
// Table users: id uuid PK, name, email UNIQUE (stored lower-case), password_hash, role,
// created_at, updated_at. See internal/migrations.
type PostgresRepo struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepo)(nil)

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Name,
		NormalizeEmail(u.Email),
		u.PasswordHash,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	))
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, NormalizeEmail(email)))
}

const userFilter = `
WHERE ($1 = '' OR role = $1)
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' ESCAPE '\' OR email ILIKE '%' || $2 || '%' ESCAPE '\')`

func (r *PostgresRepo) List(ctx context.Context, f ListFilter) ([]User, int, error) {
	f = f.normalized()
	search := escapeLike(f.Search)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+userFilter, f.Role, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q := `SELECT ` + userColumns + ` FROM users` + userFilter + `
ORDER BY created_at, id
LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, q, f.Role, search, f.Limit, f.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0, f.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) UpdateRole(ctx context.Context, id, role string, now time.Time) (User, error) {
	const q = `
UPDATE users SET role = $2, updated_at = $3
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q, id, role, now))
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}

// escapeLike makes s safe to embed in an ILIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

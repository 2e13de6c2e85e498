package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("users: not found")
	ErrEmailTaken         = errors.New("users: email already registered")
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	ErrInvalidArgument    = errors.New("users: invalid argument")
	ErrSelfModification   = errors.New("users: cannot modify own account")
	ErrOwnerRequired      = errors.New("users: only an owner can grant or revoke owner")
)

// Repository is the persistence contract for users.
// Emails are stored normalized; implementations must keep them unique.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, f ListFilter) ([]User, int, error)
	UpdateRole(ctx context.Context, id, role string, now time.Time) (User, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[string]int, error)
}

package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sprintlite/internal/rbac"
)

// Service holds user-management rules shared by signup and the admin endpoints.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	log    *slog.Logger
	clock  func() time.Time
}

func NewService(repo Repository, hasher PasswordHasher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, log: log, clock: time.Now}
}

// Register creates a member account. It returns ErrEmailTaken when the email is in use,
// whether detected up front or by the unique index on insert.
func (s *Service) Register(ctx context.Context, name, email, plain string) (User, error) {
	return s.create(ctx, name, email, plain, rbac.RoleMember)
}

func (s *Service) create(ctx context.Context, name, email, plain, role string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" || name == "" || !rbac.IsValidRole(role) {
		return User{}, ErrInvalidArgument
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock().UTC()
	return s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	if f.Role != "" && !rbac.IsValidRole(f.Role) {
		return Page{}, ErrInvalidArgument
	}
	f = f.normalized()
	list, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Users: list, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ChangeRole sets targetID's role on behalf of the actor.
// Nobody changes their own role, and only an owner may grant or revoke owner.
// The target's current access token keeps its old role until it expires or is refreshed.
func (s *Service) ChangeRole(ctx context.Context, actorID, actorRole, targetID, role string) (User, error) {
	if !rbac.IsValidRole(role) {
		return User{}, ErrInvalidArgument
	}
	if actorID == targetID {
		return User{}, ErrSelfModification
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return User{}, err
	}
	if (rbac.IsOwner(role) || rbac.IsOwner(target.Role)) && !rbac.IsOwner(actorRole) {
		return User{}, ErrOwnerRequired
	}
	if target.Role == role {
		return target, nil
	}

	updated, err := s.repo.UpdateRole(ctx, targetID, role, s.clock().UTC())
	if err != nil {
		return User{}, err
	}
	s.log.InfoContext(ctx, "user role changed",
		"actor_id", actorID,
		"target_id", targetID,
		"from", target.Role,
		"to", role,
	)
	return updated, nil
}

// Delete removes targetID. Deleting an owner requires an owner.
func (s *Service) Delete(ctx context.Context, actorID, actorRole, targetID string) (User, error) {
	if actorID == targetID {
		return User{}, ErrSelfModification
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return User{}, err
	}
	if rbac.IsOwner(target.Role) && !rbac.IsOwner(actorRole) {
		return User{}, ErrOwnerRequired
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return User{}, err
	}
	return target, nil
}

func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByRole(ctx)
}

// EnsureOwner creates the bootstrap owner account when no user holds the email.
// An existing account is left untouched.
func (s *Service) EnsureOwner(ctx context.Context, name, email, plain string) (User, bool, error) {
	if u, err := s.repo.GetByEmail(ctx, email); err == nil {
		return u, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}
	if name == "" {
		name = "Owner"
	}
	u, err := s.create(ctx, name, email, plain, rbac.RoleOwner)
	if err != nil {
		return User{}, false, err
	}
	s.log.InfoContext(ctx, "bootstrap owner created", "user_id", u.ID)
	return u, true, nil
}

// Exists reports whether a user with id exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

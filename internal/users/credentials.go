package users

import (
	"context"
	"errors"
	"sync"
)

// PasswordHasher is implemented by password.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// CredentialVerifier checks an email/password pair against the stored hash.
type CredentialVerifier struct {
	repo   Repository
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialVerifier(repo Repository, hasher PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{repo: repo, hasher: hasher}
}

// Verify returns the user on a match. It fails with ErrNotFound when no account has the
// email and ErrInvalidCredentials on a wrong password; callers must not tell these apart
// in responses. A hash comparison runs in both cases so response timing does not leak
// which one happened.
func (v *CredentialVerifier) Verify(ctx context.Context, email, plain string) (User, error) {
	u, err := v.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		_, _ = v.hasher.Verify(plain, v.dummy())
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}

	ok, err := v.hasher.Verify(plain, u.PasswordHash)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (v *CredentialVerifier) dummy() string {
	v.dummyOnce.Do(func() {
		v.dummyHash, _ = v.hasher.Hash("sprintlite-timing-equalizer")
	})
	return v.dummyHash
}

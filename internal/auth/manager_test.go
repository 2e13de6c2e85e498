package auth

import (
	"errors"
	"testing"
	"time"

	"sprintlite/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		Issuer:          "sprintlite",
		Audience:        "sprintlite-web",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestNewManagerRejectsSharedSecret(t *testing.T) {
	_, err := NewManager(config.AuthConfig{AccessSecret: "same", RefreshSecret: "same"})
	if err == nil {
		t.Fatalf("expected error for identical secrets")
	}
	if _, err := NewManager(config.AuthConfig{AccessSecret: "a"}); err == nil {
		t.Fatalf("expected error for missing refresh secret")
	}
}

func TestNewManagerDefaultsTTL(t *testing.T) {
	m, err := NewManager(config.AuthConfig{AccessSecret: "a", RefreshSecret: "b"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if m.AccessTTL() != 15*time.Minute || m.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected defaults: %v %v", m.AccessTTL(), m.RefreshTTL())
	}
}

func TestIssuePairAndVerify(t *testing.T) {
	m := newTestManager(t)
	id := Identity{UserID: "user-1", Email: "a@example.com", Role: "member"}

	pair, err := m.IssuePair(epoch, id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessTTL != 15*time.Minute || pair.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttls: %+v", pair)
	}

	claims, err := m.VerifyAccess(pair.AccessToken, epoch.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Identity() != id {
		t.Fatalf("unexpected identity: %+v", claims.Identity())
	}

	rc, err := m.VerifyRefresh(pair.RefreshToken, epoch.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if rc.Subject != "user-1" || rc.Role != "" || rc.Email != "" {
		t.Fatalf("refresh token should carry only the subject: %+v", rc)
	}
}

func TestAccessAndRefreshSecretsAreNotInterchangeable(t *testing.T) {
	m := newTestManager(t)
	pair, _ := m.IssuePair(epoch, Identity{UserID: "u", Email: "e", Role: "member"})

	if _, err := m.VerifyAccess(pair.RefreshToken, epoch); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("refresh token must not verify as access: %v", err)
	}
	if _, err := m.VerifyRefresh(pair.AccessToken, epoch); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("access token must not verify as refresh: %v", err)
	}
}

func TestIssuePairProducesDistinctTokensWithinOneSecond(t *testing.T) {
	m := newTestManager(t)
	id := Identity{UserID: "u", Email: "e", Role: "member"}
	a, _ := m.IssuePair(epoch, id)
	b, _ := m.IssuePair(epoch, id)
	if a.AccessToken == b.AccessToken || a.RefreshToken == b.RefreshToken {
		t.Fatalf("expected distinct pairs")
	}
}

func TestExpiredAccessTokenIsRejectedRepeatedly(t *testing.T) {
	m := newTestManager(t)
	pair, _ := m.IssuePair(epoch, Identity{UserID: "u", Email: "e", Role: "member"})
	later := epoch.Add(16 * time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := m.VerifyAccess(pair.AccessToken, later); !errors.Is(err, ErrExpired) {
			t.Fatalf("attempt %d: expected ErrExpired, got %v", i, err)
		}
	}
}

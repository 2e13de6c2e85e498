package auth

import (
	"errors"
	"time"

	"sprintlite/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Manager binds the access and refresh secrets and TTLs from config.
// Access and refresh tokens use distinct secrets, so neither verifies with the other's key.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("JWT_REFRESH_SECRET is required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = config.DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = config.DefaultRefreshTokenTTL
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssuePair mints an access token carrying id and a refresh token carrying only the subject.
func (m *Manager) IssuePair(now time.Time, id Identity) (TokenPair, error) {
	access, err := Issue(now, Claims{
		RegisteredClaims: m.registered(id.UserID),
		Email:            id.Email,
		Role:             id.Role,
		TokenType:        TokenTypeAccess,
	}, m.accessSecret, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := Issue(now, Claims{
		RegisteredClaims: m.registered(id.UserID),
		TokenType:        TokenTypeRefresh,
	}, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    m.accessTTL,
		RefreshTTL:   m.refreshTTL,
	}, nil
}

func (m *Manager) VerifyAccess(token string, now time.Time) (Claims, error) {
	return Verify(token, m.accessSecret, m.expect(TokenTypeAccess), now)
}

func (m *Manager) VerifyRefresh(token string, now time.Time) (Claims, error) {
	return Verify(token, m.refreshSecret, m.expect(TokenTypeRefresh), now)
}

func (m *Manager) registered(subject string) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{Subject: subject, Issuer: m.issuer}
	if m.audience != "" {
		rc.Audience = jwt.ClaimStrings{m.audience}
	}
	return rc
}

func (m *Manager) expect(t TokenType) Expect {
	return Expect{Type: t, Issuer: m.issuer, Audience: m.audience}
}

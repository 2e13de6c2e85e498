// Package session runs the login, signup, refresh and logout flows.
//
// It takes an auth.Carrier in and returns a Result (status, body, cookies) out, so the
// flows do not depend on the HTTP framework. Every failure leaves as an *apierr.Error;
// unexpected errors are wrapped and surface as a generic internal error.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sprintlite/internal/apierr"
	"sprintlite/internal/audit"
	"sprintlite/internal/auth"
	"sprintlite/internal/users"
)

// Auditor receives auth outcomes. Implementations must not block or fail the request.
type Auditor interface {
	LogAuth(ctx context.Context, t audit.EventType, userID, role, ip, message string)
}

type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

type Deps struct {
	Users       *users.Service
	Credentials *users.CredentialVerifier
	Tokens      *auth.Manager

	// Optional.
	Audit  Auditor
	Mailer WelcomeMailer
	Logger *slog.Logger

	// SecureCookies sets the Secure attribute; true in production.
	SecureCookies bool
}

type Issuer struct {
	users  *users.Service
	creds  *users.CredentialVerifier
	tokens *auth.Manager
	audit  Auditor
	mailer WelcomeMailer
	log    *slog.Logger
	secure bool
	clock  func() time.Time
}

func NewIssuer(d Deps) (*Issuer, error) {
	if d.Users == nil || d.Credentials == nil || d.Tokens == nil {
		return nil, errors.New("session: users, credentials and tokens are required")
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Issuer{
		users:  d.Users,
		creds:  d.Credentials,
		tokens: d.Tokens,
		audit:  d.Audit,
		mailer: d.Mailer,
		log:    log,
		secure: d.SecureCookies,
		clock:  time.Now,
	}, nil
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Result is what a flow hands back to the transport: a status, a JSON body and the
// cookies to set.
type Result struct {
	Status      int
	AccessToken string
	User        *users.User
	Cookies     []*http.Cookie
}

type Body struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
	User        *users.User `json:"user,omitempty"`
}

func (r Result) Body() Body {
	b := Body{Success: true, AccessToken: r.AccessToken, User: r.User}
	if r.AccessToken == "" && r.User == nil {
		b.Message = "Logged out"
	}
	return b
}

func (i *Issuer) Login(ctx context.Context, in LoginInput, ip string) (Result, error) {
	in.Email = users.NormalizeEmail(in.Email)
	if err := apierr.ValidateStruct(in); err != nil {
		return Result{}, err
	}

	u, err := i.creds.Verify(ctx, in.Email, in.Password)
	switch {
	case errors.Is(err, users.ErrNotFound), errors.Is(err, users.ErrInvalidCredentials):
		i.logAuth(ctx, audit.EventLoginFailed, "", "", ip, "invalid credentials")
		return Result{}, apierr.InvalidCredentials()
	case err != nil:
		return Result{}, fmt.Errorf("verify credentials: %w", err)
	}

	res, err := i.issue(u, http.StatusOK)
	if err != nil {
		return Result{}, err
	}
	i.logAuth(ctx, audit.EventLoginSucceeded, u.ID, u.Role, ip, "")
	return res, nil
}

func (i *Issuer) Signup(ctx context.Context, in SignupInput, ip string) (Result, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = users.NormalizeEmail(in.Email)
	if err := apierr.ValidateStruct(in); err != nil {
		return Result{}, err
	}

	u, err := i.users.Register(ctx, in.Name, in.Email, in.Password)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return Result{}, apierr.Conflict("An account with this email already exists")
	case errors.Is(err, users.ErrInvalidArgument):
		return Result{}, apierr.Validation("Invalid request body", nil)
	case err != nil:
		return Result{}, fmt.Errorf("register user: %w", err)
	}

	res, err := i.issue(u, http.StatusCreated)
	if err != nil {
		return Result{}, err
	}
	i.logAuth(ctx, audit.EventSignup, u.ID, u.Role, ip, "")
	i.sendWelcome(ctx, u)
	return res, nil
}

// Refresh rotates the pair carried by the refresh cookie. The new access token takes the
// user's current stored role. Earlier refresh tokens stay valid until they expire; there is
// no revocation list.
func (i *Issuer) Refresh(ctx context.Context, c auth.Carrier, ip string) (Result, error) {
	raw := auth.RefreshTokenFrom(c)
	if raw == "" {
		return Result{}, apierr.SessionExpired()
	}

	claims, err := i.tokens.VerifyRefresh(raw, i.clock())
	if err != nil {
		i.log.DebugContext(ctx, "refresh token rejected", "err", err)
		i.logAuth(ctx, audit.EventRefreshFailed, "", "", ip, "invalid refresh token")
		return Result{}, apierr.SessionExpired()
	}

	u, err := i.users.Get(ctx, claims.Subject)
	switch {
	case errors.Is(err, users.ErrNotFound):
		i.logAuth(ctx, audit.EventRefreshFailed, claims.Subject, "", ip, "user no longer exists")
		return Result{}, apierr.SessionExpired()
	case err != nil:
		return Result{}, fmt.Errorf("load user for refresh: %w", err)
	}

	res, err := i.issue(u, http.StatusOK)
	if err != nil {
		return Result{}, err
	}
	i.logAuth(ctx, audit.EventTokenRefreshed, u.ID, u.Role, ip, "")
	return res, nil
}

// Logout returns the cookies that clear the session. Tokens are stateless, so any copy
// the client kept stays valid until it expires.
func (i *Issuer) Logout(ctx context.Context, c auth.Carrier, ip string) Result {
	if tok := auth.AccessTokenFrom(c); tok != "" {
		if claims, err := i.tokens.VerifyAccess(tok, i.clock()); err == nil {
			i.logAuth(ctx, audit.EventLogout, claims.Subject, claims.Role, ip, "")
		}
	}
	return Result{Status: http.StatusOK, Cookies: auth.ClearSessionCookies(i.secure)}
}

func (i *Issuer) issue(u users.User, status int) (Result, error) {
	pair, err := i.tokens.IssuePair(i.clock(), auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return Result{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Result{
		Status:      status,
		AccessToken: pair.AccessToken,
		User:        &u,
		Cookies:     auth.SessionCookies(pair, i.secure),
	}, nil
}

func (i *Issuer) logAuth(ctx context.Context, t audit.EventType, userID, role, ip, msg string) {
	if i.audit != nil {
		i.audit.LogAuth(ctx, t, userID, role, ip, msg)
	}
}

// sendWelcome runs in the background; signup never waits for or fails on email delivery.
func (i *Issuer) sendWelcome(ctx context.Context, u users.User) {
	if i.mailer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := i.mailer.SendWelcome(ctx, u.Email, u.Name); err != nil {
			i.log.WarnContext(ctx, "welcome email failed", "user_id", u.ID, "err", err)
		}
	}()
}

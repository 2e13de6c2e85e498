package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sprintlite/internal/apierr"
	"sprintlite/internal/audit"
	"sprintlite/internal/auth"
	"sprintlite/internal/config"
	"sprintlite/internal/password"
	"sprintlite/internal/rbac"
	"sprintlite/internal/users"
	"sprintlite/pkg/logger"
)

type fixture struct {
	issuer *Issuer
	repo   *users.MemoryRepo
	svc    *users.Service
	tokens *auth.Manager
	audit  *audit.MemoryRepo
	mail   *fakeMailer
}

type fakeMailer struct {
	sent chan string
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, _ string) error {
	m.sent <- to
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewManager(config.AuthConfig{
		AccessSecret:  "access-secret-for-tests-0123456789",
		RefreshSecret: "refresh-secret-for-tests-0123456789",
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	repo := users.NewMemoryRepo()
	h := password.NewHasher(password.Params{Memory: 1024, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8})
	svc := users.NewService(repo, h, logger.Discard())
	auditRepo := audit.NewMemoryRepo()
	mail := &fakeMailer{sent: make(chan string, 4)}

	iss, err := NewIssuer(Deps{
		Users:       svc,
		Credentials: users.NewCredentialVerifier(repo, h),
		Tokens:      tokens,
		Audit:       audit.NewService(auditRepo, logger.Discard()),
		Mailer:      mail,
		Logger:      logger.Discard(),
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return &fixture{issuer: iss, repo: repo, svc: svc, tokens: tokens, audit: auditRepo, mail: mail}
}

func refreshCarrier(token string) auth.Carrier {
	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: token})
	}
	return auth.HTTPRequest{R: r}
}

func cookieValue(t *testing.T, res Result, name string) string {
	t.Helper()
	for _, c := range res.Cookies {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("cookie %q not set", name)
	return ""
}

func TestSignupThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.issuer.Signup(ctx, SignupInput{Name: " Ann ", Email: "Ann@Example.com", Password: "secret-pass"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if res.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Status)
	}
	if res.User.Role != rbac.RoleMember || res.User.Name != "Ann" {
		t.Fatalf("unexpected user %+v", res.User)
	}
	if len(res.Cookies) != 2 {
		t.Fatalf("expected two cookies, got %d", len(res.Cookies))
	}
	select {
	case to := <-f.mail.sent:
		if to != "ann@example.com" {
			t.Fatalf("welcome sent to %q", to)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected welcome email")
	}

	res, err = f.issuer.Login(ctx, LoginInput{Email: "ann@example.com", Password: "secret-pass"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}
	claims, err := f.tokens.VerifyAccess(res.AccessToken, time.Now())
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != res.User.ID || claims.Email != "ann@example.com" || claims.Role != rbac.RoleMember {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if cookieValue(t, res, auth.AccessCookieName) != res.AccessToken {
		t.Fatalf("access cookie does not carry the access token")
	}
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, errUnknown := f.issuer.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret-pass"}, "")
	_, errWrong := f.issuer.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong-pass"}, "")

	for _, err := range []error{errUnknown, errWrong} {
		if !apierr.Is(err, apierr.KindInvalidCredentials) {
			t.Fatalf("expected invalid credentials, got %v", err)
		}
	}
	a, _ := json.Marshal(apierr.From(errUnknown).Body())
	b, _ := json.Marshal(apierr.From(errWrong).Body())
	if string(a) != string(b) {
		t.Fatalf("bodies differ:\n%s\n%s", a, b)
	}
	if apierr.From(errUnknown).Status() != http.StatusUnauthorized {
		t.Fatalf("expected 401")
	}

	failed := 0
	for _, e := range f.audit.Events() {
		if e.Type == audit.EventLoginFailed {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 login_failed events, got %d", failed)
	}
}

func TestLogin_ValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.issuer.Login(context.Background(), LoginInput{Email: "not-an-email"}, "")
	e := apierr.From(err)
	if e.Kind != apierr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if e.Details["email"] != "email" || e.Details["password"] != "required" {
		t.Fatalf("unexpected details %v", e.Details)
	}
}

func TestSignup_DuplicateEmailConflictsAndStoresOneUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := f.issuer.Signup(ctx, SignupInput{Name: "Other", Email: "ANN@example.com", Password: "other-pass"}, "")
	if !apierr.Is(err, apierr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apierr.From(err).Status() != http.StatusConflict {
		t.Fatalf("expected 409")
	}

	page, err := f.svc.List(ctx, users.ListFilter{Search: "ann@example.com"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected exactly one user, got %d", page.Total)
	}
	if u, err := f.repo.GetByEmail(ctx, "ann@example.com"); err != nil || u.Name != "Ann" {
		t.Fatalf("expected original user kept, got %+v err=%v", u, err)
	}
}

func TestSignup_ShortPasswordRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.issuer.Signup(context.Background(), SignupInput{Name: "Ann", Email: "ann@example.com", Password: "short"}, "")
	if e := apierr.From(err); e.Kind != apierr.KindValidation || e.Details["password"] != "min=8" {
		t.Fatalf("expected password min=8, got %v (%v)", err, e.Details)
	}
}

// Refresh tokens are not single-use: replaying the first one keeps working until it
// expires. This test pins that behavior so tightening it is a visible change.
func TestRefresh_RotationTwiceWithFirstTokenBothSucceed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, err := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	first := cookieValue(t, signup, auth.RefreshCookieName)

	r1, err := f.issuer.Refresh(ctx, refreshCarrier(first), "")
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	r2, err := f.issuer.Refresh(ctx, refreshCarrier(first), "")
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if r1.AccessToken == r2.AccessToken {
		t.Fatalf("expected different access tokens")
	}
	if cookieValue(t, r1, auth.RefreshCookieName) == cookieValue(t, r2, auth.RefreshCookieName) {
		t.Fatalf("expected different refresh tokens")
	}
	if cookieValue(t, r1, auth.RefreshCookieName) == first {
		t.Fatalf("expected rotated refresh token")
	}
}

func TestRefresh_PicksUpCurrentRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, _ := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, "")
	if _, err := f.repo.UpdateRole(ctx, signup.User.ID, rbac.RoleAdmin, time.Now()); err != nil {
		t.Fatalf("update role: %v", err)
	}

	res, err := f.issuer.Refresh(ctx, refreshCarrier(cookieValue(t, signup, auth.RefreshCookieName)), "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := f.tokens.VerifyAccess(res.AccessToken, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != rbac.RoleAdmin {
		t.Fatalf("expected admin after refresh, got %q", claims.Role)
	}
}

func TestRefresh_FailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signup, _ := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, "")
	refresh := cookieValue(t, signup, auth.RefreshCookieName)

	deleted := newFixture(t)
	gone, _ := deleted.issuer.Signup(ctx, SignupInput{Name: "Bob", Email: "bob@example.com", Password: "secret-pass"}, "")
	if err := deleted.repo.Delete(ctx, gone.User.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	cases := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{"missing cookie", f.issuer, ""},
		{"garbage", f.issuer, "not-a-jwt"},
		{"access token in refresh cookie", f.issuer, signup.AccessToken},
		{"deleted user", deleted.issuer, cookieValue(t, gone, auth.RefreshCookieName)},
	}
	want := apierr.SessionExpired().Body()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.issuer.Refresh(ctx, refreshCarrier(tc.token), "")
			e := apierr.From(err)
			if e.Status() != http.StatusUnauthorized || e.Body().Message != want.Message || e.Code != want.ErrorCode {
				t.Fatalf("expected uniform session-expired 401, got %v", err)
			}
		})
	}

	if _, err := f.issuer.Refresh(ctx, refreshCarrier(refresh), ""); err != nil {
		t.Fatalf("valid refresh should still work: %v", err)
	}
}

type brokenRepo struct{ users.Repository }

func (brokenRepo) GetByID(context.Context, string) (users.User, error) {
	return users.User{}, errors.New("connection reset")
}

func TestRefresh_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signup, _ := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, "")

	h := password.NewHasher(password.Params{Memory: 1024, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8})
	broken := brokenRepo{f.repo}
	iss, err := NewIssuer(Deps{
		Users:       users.NewService(broken, h, logger.Discard()),
		Credentials: users.NewCredentialVerifier(broken, h),
		Tokens:      f.tokens,
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	_, err = iss.Refresh(ctx, refreshCarrier(cookieValue(t, signup, auth.RefreshCookieName)), "")
	if apierr.From(err).Kind != apierr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signup, _ := f.issuer.Signup(ctx, SignupInput{Name: "Ann", Email: "ann@example.com", Password: "secret-pass"}, "")

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.Header.Set("Authorization", "Bearer "+signup.AccessToken)
	res := f.issuer.Logout(ctx, auth.HTTPRequest{R: r}, "")

	if res.Status != http.StatusOK || len(res.Cookies) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, c := range res.Cookies {
		if c.MaxAge != -1 || c.Value != "" {
			t.Fatalf("expected clearing cookie, got %v", c)
		}
	}
	if res.Body().Message != "Logged out" {
		t.Fatalf("unexpected body %+v", res.Body())
	}

	var sawLogout bool
	for _, e := range f.audit.Events() {
		if e.Type == audit.EventLogout && e.ActorUserID == signup.User.ID {
			sawLogout = true
		}
	}
	if !sawLogout {
		t.Fatalf("expected logout audit event")
	}
}

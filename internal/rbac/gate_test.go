package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sprintlite/internal/apierr"
	"sprintlite/internal/auth"
	"sprintlite/internal/config"

	"github.com/gin-gonic/gin"
)

var now = time.Unix(1700000000, 0).UTC()

func newGate(t *testing.T) (*Gate, *auth.Manager) {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{AccessSecret: "access", RefreshSecret: "refresh"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	g := NewGate(m, nil)
	g.clock = func() time.Time { return now }
	return g, m
}

func requestWithToken(t *testing.T, m *auth.Manager, id auth.Identity, issuedAt time.Time) auth.Carrier {
	t.Helper()
	pair, err := m.IssuePair(issuedAt, id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	return auth.HTTPRequest{R: req}
}

func TestAuthorizeAdmitsByTable(t *testing.T) {
	g, m := newGate(t)
	req := requestWithToken(t, m, auth.Identity{UserID: "u1", Email: "a@x", Role: RoleMember}, now)

	id, err := g.Authorize(req, ResourceTasks, ActionRead)
	if err != nil {
		t.Fatalf("expected admit, got %v", err)
	}
	if id.UserID != "u1" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestAuthorizeWithoutToken(t *testing.T) {
	g, _ := newGate(t)
	req := auth.HTTPRequest{R: httptest.NewRequest(http.MethodGet, "/", nil)}
	if _, err := g.Authorize(req, ResourceTasks, ActionRead); !apierr.Is(err, apierr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthorizeExpiredTokenIsUnauthorizedEveryTime(t *testing.T) {
	g, m := newGate(t)
	req := requestWithToken(t, m, auth.Identity{UserID: "u1", Email: "a@x", Role: RoleOwner}, now.Add(-time.Hour))
	for i := 0; i < 2; i++ {
		if _, err := g.Authorize(req, ResourceTasks, ActionRead); !apierr.Is(err, apierr.KindUnauthorized) {
			t.Fatalf("attempt %d: expected unauthorized, got %v", i, err)
		}
	}
}

func TestMemberDeleteOnAdminIsForbiddenWithoutOwnershipFallback(t *testing.T) {
	g, m := newGate(t)
	id := auth.Identity{UserID: "u1", Email: "a@x", Role: RoleMember}
	req := requestWithToken(t, m, id, now)

	if _, err := g.Authorize(req, ResourceAdmin, ActionDelete); !apierr.Is(err, apierr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	// Even naming the caller as owner cannot open an admin resource.
	if _, err := g.AuthorizeOrOwner(req, id.UserID, ResourceAdmin, ActionDelete); !apierr.Is(err, apierr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestOwnershipOverride(t *testing.T) {
	g, m := newGate(t)
	creator := requestWithToken(t, m, auth.Identity{UserID: "creator", Email: "c@x", Role: RoleMember}, now)
	other := requestWithToken(t, m, auth.Identity{UserID: "other", Email: "o@x", Role: RoleMember}, now)

	if _, err := g.Authorize(creator, ResourceTasks, ActionUpdate); !apierr.Is(err, apierr.KindForbidden) {
		t.Fatalf("table should deny member update, got %v", err)
	}
	if _, err := g.CheckOwnership(creator, "creator", ResourceTasks, ActionUpdate); err != nil {
		t.Fatalf("creator should be admitted, got %v", err)
	}
	if _, err := g.CheckOwnership(other, "creator", ResourceTasks, ActionUpdate); !apierr.Is(err, apierr.KindForbidden) {
		t.Fatalf("non-owner with same role must be denied, got %v", err)
	}
	if _, err := g.AuthorizeOrOwner(creator, "creator", ResourceTasks, ActionDelete); err != nil {
		t.Fatalf("creator should be admitted for delete, got %v", err)
	}
	if _, err := g.CheckOwnership(creator, "", ResourceTasks, ActionUpdate); !apierr.Is(err, apierr.KindForbidden) {
		t.Fatalf("empty owner must never match, got %v", err)
	}
}

func TestCheckOwnershipReverifiesToken(t *testing.T) {
	g, m := newGate(t)
	req := requestWithToken(t, m, auth.Identity{UserID: "creator", Email: "c@x", Role: RoleMember}, now.Add(-time.Hour))
	if _, err := g.CheckOwnership(req, "creator", ResourceTasks, ActionUpdate); !apierr.Is(err, apierr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRequireMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g, m := newGate(t)
	g.clock = time.Now

	r := gin.New()
	r.DELETE("/admin/thing", Require(g, ResourceAdmin, ActionDelete), func(c *gin.Context) {
		id, _ := auth.IdentityFromGin(c)
		c.String(http.StatusOK, id.UserID)
	})

	do := func(role string) *httptest.ResponseRecorder {
		pair, _ := m.IssuePair(time.Now(), auth.Identity{UserID: "u-" + role, Email: "e", Role: role})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/admin/thing", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: pair.AccessToken})
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(RoleMember); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := do(RoleOwner); w.Code != http.StatusOK || w.Body.String() != "u-owner" {
		t.Fatalf("expected 200 u-owner, got %d %s", w.Code, w.Body.String())
	}
}

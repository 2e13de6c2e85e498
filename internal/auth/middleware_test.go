package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAccessTokenFromHeaderThenCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "from-cookie"})
	if got := AccessTokenFrom(HTTPRequest{R: req}); got != "from-cookie" {
		t.Fatalf("expected cookie token, got %q", got)
	}

	req.Header.Set("Authorization", "bearer from-header")
	if got := AccessTokenFrom(HTTPRequest{R: req}); got != "from-header" {
		t.Fatalf("expected header token, got %q", got)
	}

	req.Header.Set("Authorization", "Basic abc")
	if got := AccessTokenFrom(HTTPRequest{R: req}); got != "from-cookie" {
		t.Fatalf("non-bearer header must fall back to cookie, got %q", got)
	}
}

func TestRefreshTokenFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if got := RefreshTokenFrom(HTTPRequest{R: req}); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "r"})
	if got := RefreshTokenFrom(HTTPRequest{R: req}); got != "r" {
		t.Fatalf("expected r, got %q", got)
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	pair, _ := m.IssuePair(time.Now(), Identity{UserID: "u-1", Email: "a@example.com", Role: "admin"})

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		id, ok := IdentityFromGin(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		if ctxID, ok := IdentityFrom(c.Request.Context()); !ok || ctxID != id {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, id.Role)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"refresh token as access", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"valid", "Bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, w.Code, w.Body.String())
			}
			if tc.want == http.StatusOK && w.Body.String() != "admin" {
				t.Fatalf("unexpected body %q", w.Body.String())
			}
		})
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/tasks/:id", func(c *gin.Context) { c.Status(http.StatusForbidden) })

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/tasks/:id", "403")); got != 2 {
		t.Fatalf("expected 2 requests on route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.rbacDenials.WithLabelValues("403")); got != 2 {
		t.Fatalf("expected 2 denials, got %v", got)
	}
}

func TestObserveAuthAndCache(t *testing.T) {
	m := New()
	m.ObserveAuth("login", true)
	m.ObserveAuth("login", false)
	m.ObserveAuth("login", false)
	m.ObserveCache("redis", true)

	if got := testutil.ToFloat64(m.authEvents.WithLabelValues("login", "failure")); got != 2 {
		t.Fatalf("expected 2 login failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("redis", "hit")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveCache("memory", false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `sprintlite_cache_lookups_total{result="miss",store="memory"} 1`) {
		t.Fatalf("metric not exposed:\n%s", body)
	}
}

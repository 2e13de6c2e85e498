// Package metrics exposes Prometheus metrics for HTTP traffic, auth outcomes and the
// response cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sprintlite"

// Registry owns the collectors. Each Registry has its own prometheus.Registry, so tests
// can build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge
	authEvents   *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	rbacDenials  *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Requests currently being served.",
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Auth flow outcomes by operation (login, signup, refresh, logout) and result.",
		}, []string{"op", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by store and result (hit, miss).",
		}, []string{"store", "result"}),
		rbacDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rbac_denials_total",
			Help:      "Requests rejected by authorization, by status.",
		}, []string{"status"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.httpInflight,
		r.authEvents,
		r.cacheLookups,
		r.rbacDenials,
	)
	return r
}

// Handler serves /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer is exposed for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Middleware records request count, latency and in-flight requests. Routes are labelled
// by their pattern (c.FullPath) so ids do not explode cardinality.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		r.httpInflight.Inc()
		defer r.httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		r.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			r.rbacDenials.WithLabelValues(strconv.Itoa(status)).Inc()
		}
	}
}

// ObserveAuth counts an auth flow outcome, e.g. ("login", "failure").
func (r *Registry) ObserveAuth(op string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	r.authEvents.WithLabelValues(op, result).Inc()
}

// ObserveCache implements cache.Observer.
func (r *Registry) ObserveCache(store string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(store, result).Inc()
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"sprintlite/internal/audit"
	"sprintlite/internal/auth"
	"sprintlite/internal/cache"
	"sprintlite/internal/config"
	"sprintlite/internal/email"
	"sprintlite/internal/httpapi"
	"sprintlite/internal/metrics"
	"sprintlite/internal/password"
	"sprintlite/internal/rbac"
	"sprintlite/internal/reporting"
	"sprintlite/internal/security"
	"sprintlite/internal/session"
	"sprintlite/internal/tasks"
	"sprintlite/internal/users"
	"sprintlite/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const appName = "SprintLite"

// app holds the wired services. Keep business logic out of this file.
type app struct {
	log        *slog.Logger
	tokens     *auth.Manager
	metrics    *metrics.Registry
	users      *users.Service
	handlers   *httpapi.Handlers
	cacheStore string
}

func newApp(cfg config.Config, db *sql.DB, rdb *redis.Client, log *slog.Logger) (*app, error) {
	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	reg := metrics.New()

	var store cache.Store = cache.NewMemoryStore(cfg.Cache.TaskListTTL)
	if rdb != nil {
		store = cache.NewRedisStore(rdb)
	}
	taskCache := cache.New(store, log, reg)

	var sender email.Sender = email.NewLogSender(log)
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(cfg.SMTP, log)
	}
	notifier := email.NewNotifier(sender, appName)

	hasher := password.NewHasher(password.DefaultParams)
	userRepo := users.NewPostgresRepo(db)
	userSvc := users.NewService(userRepo, hasher, log)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db), log)

	issuer, err := session.NewIssuer(session.Deps{
		Users:         userSvc,
		Credentials:   users.NewCredentialVerifier(userRepo, hasher),
		Tokens:        tokens,
		Audit:         auditSvc,
		Mailer:        notifier,
		Logger:        log,
		SecureCookies: cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	taskSvc := tasks.NewService(tasks.NewPostgresRepo(db), userSvc, taskCache, cfg.Cache.TaskListTTL, log)

	return &app{
		log:     log,
		tokens:  tokens,
		metrics: reg,
		users:   userSvc,
		handlers: &httpapi.Handlers{
			Sessions: issuer,
			Gate:     rbac.NewGate(tokens, rbac.DefaultPolicy()),
			Tasks:    taskSvc,
			Users:    userSvc,
			Reports:  reporting.NewService(taskSvc, userSvc),
			Audit:    auditSvc,
			Mailer:   notifier,
			Metrics:  reg,
			Logger:   log,
		},
		cacheStore: store.Name(),
	}, nil
}

// bootstrapOwner creates the configured owner account if it does not exist yet.
// users.Service logs the creation.
func (a *app) bootstrapOwner(ctx context.Context, b config.BootstrapConfig) error {
	if b.OwnerEmail == "" {
		return nil
	}
	_, _, err := a.users.EnsureOwner(ctx, b.OwnerName, b.OwnerEmail, b.OwnerPassword)
	return err
}

// router wires HTTP routes to handlers. ping backs the readiness probe.
func (a *app) router(cfg config.Config, ping func(context.Context) error) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(a.log))
	r.Use(a.metrics.Middleware())
	r.Use(security.Headers(cfg.IsProduction()))
	r.Use(security.Sanitize())

	r.NoRoute(httpapi.NotFound)
	r.NoMethod(httpapi.MethodNotAllowed)

	// public
	r.GET("/healthz", httpapi.Health)
	r.GET("/readyz", func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			logger.FromGin(c).WarnContext(c.Request.Context(), "readiness check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	limiter := security.NewRateLimiter(cfg.RateLimit.AuthRequestsPerMinute)
	httpapi.Register(r, a.handlers, a.tokens, limiter.Handler())
	return r
}

// Package httpapi holds the gin handlers. Handlers stay thin: bind input, authorize,
// call a service, shape the JSON response. Errors leave through apierr.Abort.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sprintlite/internal/apierr"
	"sprintlite/internal/audit"
	"sprintlite/internal/rbac"
	"sprintlite/internal/reporting"
	"sprintlite/internal/session"
	"sprintlite/internal/tasks"
	"sprintlite/internal/users"
)

// AuthObserver counts auth outcomes. metrics.Registry implements it.
type AuthObserver interface {
	ObserveAuth(op string, ok bool)
}

type RoleChangeMailer interface {
	SendRoleChanged(ctx context.Context, to, name, role string) error
}

// Handlers groups HTTP handlers for dependency injection. Optional fields may be nil.
type Handlers struct {
	Sessions *session.Issuer
	Gate     *rbac.Gate
	Tasks    *tasks.Service
	Users    *users.Service
	Reports  *reporting.Service

	Audit   *audit.Service
	Mailer  RoleChangeMailer
	Metrics AuthObserver
	Logger  *slog.Logger
}

func (h *Handlers) log() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handlers) observeAuth(op string, err error) {
	if h.Metrics != nil {
		h.Metrics.ObserveAuth(op, err == nil)
	}
}

// bindJSON decodes the body into dst and runs its validate tags.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.Validation("Malformed JSON body", nil)
	}
	return apierr.ValidateStruct(dst)
}

// idParam returns the named path parameter when it is a UUID. Anything else cannot name
// a stored record, so it is reported as notFound.
func idParam(c *gin.Context, name string, notFound *apierr.Error) (string, error) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound
	}
	return id, nil
}

// domainError translates service sentinels into client errors. Anything unrecognized
// passes through and becomes a 500.
func domainError(err error) error {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		return apierr.NotFound("Task not found")
	case errors.Is(err, tasks.ErrCommentNotFound):
		return apierr.NotFound("Comment not found")
	case errors.Is(err, tasks.ErrUnknownAssignee):
		return apierr.Validation("Assignee does not exist", map[string]string{"assigneeId": "exists"})
	case errors.Is(err, tasks.ErrInvalidArgument):
		return apierr.Validation("Invalid task input", nil)
	case errors.Is(err, users.ErrNotFound):
		return apierr.NotFound("User not found")
	case errors.Is(err, users.ErrSelfModification):
		return apierr.Forbidden("You cannot change or delete your own account here")
	case errors.Is(err, users.ErrOwnerRequired):
		return apierr.Forbidden("Only an owner can grant, revoke or remove the owner role")
	case errors.Is(err, users.ErrInvalidArgument):
		return apierr.Validation("Invalid user input", nil)
	case errors.Is(err, users.ErrEmailTaken):
		return apierr.Conflict("An account with this email already exists")
	default:
		return err
	}
}

func abortDomain(c *gin.Context, err error) {
	apierr.Abort(c, domainError(err))
}

func writeSession(c *gin.Context, res session.Result) {
	for _, ck := range res.Cookies {
		http.SetCookie(c.Writer, ck)
	}
	c.JSON(res.Status, res.Body())
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NotFound and MethodNotAllowed keep the error envelope for unmatched routes.
func NotFound(c *gin.Context) {
	apierr.Abort(c, apierr.NotFound("Route not found"))
}

func MethodNotAllowed(c *gin.Context) {
	apierr.Abort(c, apierr.MethodNotAllowed())
}

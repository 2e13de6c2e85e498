package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sprintlite/internal/apierr"
	"sprintlite/internal/audit"
	"sprintlite/internal/auth"
	"sprintlite/internal/rbac"
	"sprintlite/internal/users"
)

var errUserNotFound = apierr.NotFound("User not found")

type listUsersQuery struct {
	Role  string `form:"role" validate:"omitempty,oneof=owner admin member"`
	Query string `form:"q" validate:"max=200"`
	Page  int    `form:"page" validate:"gte=0,lte=1000000"`
	Limit int    `form:"limit" validate:"gte=0,lte=100"`
}

func (h *Handlers) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierr.Abort(c, apierr.Validation("Invalid query parameters", nil))
		return
	}
	if err := apierr.ValidateStruct(q); err != nil {
		apierr.Abort(c, err)
		return
	}
	page, err := h.Users.List(c.Request.Context(), users.ListFilter{Role: q.Role, Search: q.Query, Page: q.Page, Limit: q.Limit})
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   page.Users,
		"pagination": gin.H{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}

// GetUser serves GET /api/users/:id. users:read holders see anyone; others see only
// themselves. Order matches the task routes: 401, then 404, then 403.
func (h *Handlers) GetUser(c *gin.Context) {
	if _, err := h.Gate.Identify(c); err != nil {
		apierr.Abort(c, err)
		return
	}
	targetID, err := idParam(c, "id", errUserNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	u, err := h.Users.Get(c.Request.Context(), targetID)
	if err != nil {
		abortDomain(c, err)
		return
	}
	if _, err := h.Gate.AuthorizeOrOwner(c, u.ID, rbac.ResourceUsers, rbac.ActionRead); err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin member"`
}

// ChangeRole serves PATCH /api/admin/users/:id/role. The target keeps their old role in
// any access token already issued until it is refreshed.
func (h *Handlers) ChangeRole(c *gin.Context) {
	actor, _ := auth.IdentityFromGin(c)
	targetID, err := idParam(c, "id", errUserNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	var req changeRoleRequest
	if err := bindJSON(c, &req); err != nil {
		apierr.Abort(c, err)
		return
	}

	ctx := c.Request.Context()
	before, err := h.Users.Get(ctx, targetID)
	if err != nil {
		abortDomain(c, err)
		return
	}
	u, err := h.Users.ChangeRole(ctx, actor.UserID, actor.Role, targetID, req.Role)
	if err != nil {
		abortDomain(c, err)
		return
	}

	if before.Role != u.Role {
		if h.Audit != nil {
			h.Audit.LogAdminAction(ctx, audit.EventRoleChanged, actor.UserID, actor.Role, u.ID, c.ClientIP(),
				before.Role+" -> "+u.Role, fmt.Sprintf(`{"from":%q,"to":%q}`, before.Role, u.Role))
		}
		h.notifyRoleChanged(ctx, u)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func (h *Handlers) notifyRoleChanged(ctx context.Context, u users.User) {
	if h.Mailer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := h.Mailer.SendRoleChanged(ctx, u.Email, u.Name, u.Role); err != nil {
			h.log().WarnContext(ctx, "role change email failed", "user_id", u.ID, "err", err)
		}
	}()
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	actor, _ := auth.IdentityFromGin(c)
	targetID, err := idParam(c, "id", errUserNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	u, err := h.Users.Delete(c.Request.Context(), actor.UserID, actor.Role, targetID)
	if err != nil {
		abortDomain(c, err)
		return
	}
	if h.Audit != nil {
		h.Audit.LogAdminAction(c.Request.Context(), audit.EventUserDeleted, actor.UserID, actor.Role, u.ID, c.ClientIP(), "deleted "+u.Email, "")
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

func (h *Handlers) Stats(c *gin.Context) {
	s, err := h.Reports.Stats(c.Request.Context())
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": s})
}

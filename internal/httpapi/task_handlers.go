package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sprintlite/internal/apierr"
	"sprintlite/internal/auth"
	"sprintlite/internal/rbac"
	"sprintlite/internal/tasks"
)

var (
	errTaskNotFound    = apierr.NotFound("Task not found")
	errCommentNotFound = apierr.NotFound("Comment not found")
)

// ListTasks serves GET /api/tasks. Responses are cached; X-Cache says which.
func (h *Handlers) ListTasks(c *gin.Context) {
	var f tasks.ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		apierr.Abort(c, apierr.Validation("Invalid query parameters", nil))
		return
	}
	if err := apierr.ValidateStruct(f); err != nil {
		apierr.Abort(c, err)
		return
	}

	page, hit, err := h.Tasks.List(c.Request.Context(), f)
	if err != nil {
		abortDomain(c, err)
		return
	}
	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tasks":   page.Tasks,
		"pagination": gin.H{
			"total": page.Total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}

func (h *Handlers) CreateTask(c *gin.Context) {
	id, _ := auth.IdentityFromGin(c)

	var in tasks.CreateInput
	if err := bindJSON(c, &in); err != nil {
		apierr.Abort(c, err)
		return
	}
	t, err := h.Tasks.Create(c.Request.Context(), id.UserID, in)
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "task": t})
}

func (h *Handlers) GetTask(c *gin.Context) {
	taskID, err := idParam(c, "id", errTaskNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	t, err := h.Tasks.Get(c.Request.Context(), taskID)
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": t})
}

// loadOwnedTask authenticates, loads the task and admits the caller by role or as its
// creator. Order matters: 401 before 404 before 403.
func (h *Handlers) loadOwnedTask(c *gin.Context, action rbac.Action) (tasks.Task, bool) {
	if _, err := h.Gate.Identify(c); err != nil {
		apierr.Abort(c, err)
		return tasks.Task{}, false
	}
	taskID, err := idParam(c, "id", errTaskNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return tasks.Task{}, false
	}
	t, err := h.Tasks.Get(c.Request.Context(), taskID)
	if err != nil {
		abortDomain(c, err)
		return tasks.Task{}, false
	}
	id, err := h.Gate.AuthorizeOrOwner(c, t.CreatedBy, rbac.ResourceTasks, action)
	if err != nil {
		apierr.Abort(c, err)
		return tasks.Task{}, false
	}
	auth.SetIdentity(c, id)
	return t, true
}

func (h *Handlers) UpdateTask(c *gin.Context) {
	t, ok := h.loadOwnedTask(c, rbac.ActionUpdate)
	if !ok {
		return
	}
	var in tasks.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		apierr.Abort(c, err)
		return
	}
	updated, err := h.Tasks.Update(c.Request.Context(), t.ID, in)
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": updated})
}

func (h *Handlers) DeleteTask(c *gin.Context) {
	t, ok := h.loadOwnedTask(c, rbac.ActionDelete)
	if !ok {
		return
	}
	if err := h.Tasks.Delete(c.Request.Context(), t.ID); err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted"})
}

func (h *Handlers) ListComments(c *gin.Context) {
	taskID, err := idParam(c, "id", errTaskNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	list, err := h.Tasks.ListComments(c.Request.Context(), taskID)
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": list})
}

func (h *Handlers) AddComment(c *gin.Context) {
	id, _ := auth.IdentityFromGin(c)
	taskID, err := idParam(c, "id", errTaskNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	var in tasks.CommentInput
	if err := bindJSON(c, &in); err != nil {
		apierr.Abort(c, err)
		return
	}
	cm, err := h.Tasks.AddComment(c.Request.Context(), taskID, id.UserID, in)
	if err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": cm})
}

// DeleteComment admits comments:delete holders and the comment's author.
func (h *Handlers) DeleteComment(c *gin.Context) {
	if _, err := h.Gate.Identify(c); err != nil {
		apierr.Abort(c, err)
		return
	}
	taskID, err := idParam(c, "id", errTaskNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	commentID, err := idParam(c, "commentId", errCommentNotFound)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	cm, err := h.Tasks.GetComment(c.Request.Context(), taskID, commentID)
	if err != nil {
		abortDomain(c, err)
		return
	}
	if _, err := h.Gate.AuthorizeOrOwner(c, cm.AuthorID, rbac.ResourceComments, rbac.ActionDelete); err != nil {
		apierr.Abort(c, err)
		return
	}
	if err := h.Tasks.DeleteComment(c.Request.Context(), taskID, commentID); err != nil {
		abortDomain(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted"})
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sprintlite/internal/apierr"
	"sprintlite/internal/auth"
	"sprintlite/internal/session"
)

func (h *Handlers) Login(c *gin.Context) {
	var in session.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Abort(c, apierr.Validation("Malformed JSON body", nil))
		return
	}
	res, err := h.Sessions.Login(c.Request.Context(), in, c.ClientIP())
	h.observeAuth("login", err)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	writeSession(c, res)
}

func (h *Handlers) Signup(c *gin.Context) {
	var in session.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Abort(c, apierr.Validation("Malformed JSON body", nil))
		return
	}
	res, err := h.Sessions.Signup(c.Request.Context(), in, c.ClientIP())
	h.observeAuth("signup", err)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	writeSession(c, res)
}

// Refresh reads only the refresh cookie; the body is ignored.
func (h *Handlers) Refresh(c *gin.Context) {
	res, err := h.Sessions.Refresh(c.Request.Context(), c, c.ClientIP())
	h.observeAuth("refresh", err)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	writeSession(c, res)
}

// RefreshGet rejects GET so the rotating endpoint cannot be triggered by a link or prefetch.
func (h *Handlers) RefreshGet(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	apierr.Abort(c, apierr.MethodNotAllowed())
}

func (h *Handlers) Logout(c *gin.Context) {
	res := h.Sessions.Logout(c.Request.Context(), c, c.ClientIP())
	h.observeAuth("logout", nil)
	writeSession(c, res)
}

// Me echoes the identity carried by the access token. It never reads the database, so it
// shows the role the token was issued with.
func (h *Handlers) Me(c *gin.Context) {
	id, ok := auth.IdentityFromGin(c)
	if !ok {
		apierr.Abort(c, apierr.Unauthorized(""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": id})
}

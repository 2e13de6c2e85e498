package auth

import (
	"time"

	"sprintlite/internal/apierr"

	"github.com/gin-gonic/gin"
)

// AccessVerifier is the part of Manager the middleware needs.
type AccessVerifier interface {
	VerifyAccess(token string, now time.Time) (Claims, error)
}

// RequireAccessToken verifies an access token and injects the identity into the request.
// It does not perform RBAC checks; those belong to internal/rbac.
func RequireAccessToken(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := AccessTokenFrom(c)
		if tok == "" {
			apierr.Abort(c, apierr.Unauthorized("Authentication required"))
			return
		}

		claims, err := v.VerifyAccess(tok, time.Now())
		if err != nil {
			apierr.Abort(c, apierr.Unauthorized("Invalid or expired token"))
			return
		}

		SetIdentity(c, claims.Identity())
		c.Next()
	}
}

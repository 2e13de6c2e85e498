package rbac

import (
	"sprintlite/internal/apierr"
	"sprintlite/internal/auth"

	"github.com/gin-gonic/gin"
)

// Require is the gin adapter for Gate.Authorize. On success the identity is attached to
// the request for downstream handlers.
func Require(g *Gate, resource Resource, action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.Authorize(c, resource, action)
		if err != nil {
			apierr.Abort(c, err)
			return
		}
		auth.SetIdentity(c, id)
		c.Next()
	}
}

package apierr

import (
	"sprintlite/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Body is the fixed error envelope.
type Body struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	ErrorCode string            `json:"errorCode"`
	Details   map[string]string `json:"details,omitempty"`
}

func (e *Error) Body() Body {
	return Body{Success: false, Message: e.Message, ErrorCode: e.Code, Details: e.Details}
}

// Abort writes err as the response and stops the handler chain.
// Unclassified errors are logged with the request logger and hidden from the client.
func Abort(c *gin.Context, err error) {
	e := From(err)
	if e.Kind == KindInternal {
		logger.FromGin(c).Error("unhandled error", "err", err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(e.Status(), e.Body())
}

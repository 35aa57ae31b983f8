package middleware

import (
	"net/http"

	"vidcollab/api/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Abort answers with the error's status and caller-facing message. Errors
// without a known kind are logged since their text never reaches the client.
func Abort(c *gin.Context, err error) {
	requestID := c.GetString("requestID")
	status := apperr.Status(err)

	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("requestID", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     apperr.Message(err),
		"requestID": requestID,
	})
}

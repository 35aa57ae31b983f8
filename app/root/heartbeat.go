// Package root contains endpoints that aren't tied to a feature
package root

import (
	"net/http"

	"vidcollab/api/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Heartbeat answers 200 while the database is reachable
func Heartbeat(c *gin.Context, d *internal.Deps) {
	sqlDB, err := d.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}

	if err != nil {
		zap.L().Error("Heartbeat failed to reach database", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Status(http.StatusOK)
}

func Welcome(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to the YouTube Collab Platform API")
}

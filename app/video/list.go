// Package video contains the upload, review and streaming endpoints
package video

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func List(c *gin.Context, d *internal.Deps) {
	videos, err := d.Review.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, videos)
}

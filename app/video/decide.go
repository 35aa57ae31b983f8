package video

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/internal/model"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Approve publishes a video from the dashboard. The caller must own it.
func Approve(c *gin.Context, d *internal.Deps) {
	video, err := d.Review.Approve(c.Request.Context(), middleware.CurrentUser(c), c.Param("videoId"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	respond(c, video)
}

func Reject(c *gin.Context, d *internal.Deps) {
	video, err := d.Review.Reject(c.Request.Context(), middleware.CurrentUser(c), c.Param("videoId"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	respond(c, video)
}

// ApproveWithToken is hit from the emailed review link, no session needed
func ApproveWithToken(c *gin.Context, d *internal.Deps) {
	video, err := d.Review.ApproveWithToken(c.Request.Context(), c.Param("videoId"), c.Query("token"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	respond(c, video)
}

func RejectWithToken(c *gin.Context, d *internal.Deps) {
	video, err := d.Review.RejectWithToken(c.Request.Context(), c.Param("videoId"), c.Query("token"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	respond(c, video)
}

func respond(c *gin.Context, v *model.Video) {
	msg := "Video sent back for review"
	if v.Status == model.StatusApproved {
		msg = "Video approved and uploaded to YouTube"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   msg,
		"status":    v.Status,
		"youtubeId": v.YoutubeID,
		"video":     v,
	})
}

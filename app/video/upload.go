package video

import (
	"errors"
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/internal/service"
	"vidcollab/api/pkg/middleware"
	"vidcollab/api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Upload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fh, err := c.FormFile("video")
	if err != nil {
		status, msg := http.StatusBadRequest, "No file uploaded"

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status, msg = http.StatusRequestEntityTooLarge, validators.ErrFileTooLarge.Error()
		}

		c.AbortWithStatusJSON(status, gin.H{
			"error":     msg,
			"requestID": requestID,
		})
		return
	}

	file, code, err := validators.VideoValidator(fh, d.MaxUploadSize, d.AllowedTypes)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate upload", zap.String("requestID", requestID), zap.Error(err))
			err = errors.New("internal server error")
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	video, err := d.Review.Upload(c.Request.Context(), middleware.CurrentUser(c), &service.Upload{
		Name:     file.Name,
		MimeType: file.MimeType,
		Data:     file.Data,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Video uploaded. The YouTuber has been notified.",
		"video":   video,
	})
}

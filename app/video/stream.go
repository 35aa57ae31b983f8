package video

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"vidcollab/api/internal"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stream relays one chunk of the video straight from Drive as a 206
func Stream(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	fileID := c.Param("fileId")

	chunk, err := d.Review.Stream(c.Request.Context(), fileID, c.GetHeader("Range"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	defer chunk.Body.Close()

	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", chunk.Start, chunk.End, chunk.Size))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Length", strconv.FormatInt(chunk.Len(), 10))
	c.Header("Content-Type", chunk.MimeType)
	c.Status(http.StatusPartialContent)

	if _, err := io.Copy(c.Writer, chunk.Body); err != nil {
		// Headers are out already, all we can do is log
		zap.L().Error("Failed to stream video", zap.String("requestID", requestID), zap.String("fileID", fileID), zap.Error(err))
	}
}

// Package google contains the endpoints of the Google account linking flow
package google

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Connect returns the consent screen URL the frontend should send the
// youtuber to
func Connect(c *gin.Context, d *internal.Deps) {
	url, err := d.Linker.Initiate(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Callback is where Google sends the browser back to. It always redirects to
// the frontend, errors included.
func Callback(c *gin.Context, d *internal.Deps) {
	target := d.Linker.Callback(c.Request.Context(), c.Query("code"), c.Query("state"))
	c.Redirect(http.StatusFound, target)
}

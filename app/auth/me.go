package auth

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/internal/model"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type meResponse struct {
	*model.User
	GoogleConnected bool `json:"googleConnected"`
}

// Me returns the caller's account. The password hash and refresh token are
// never serialized.
func Me(c *gin.Context, _ *internal.Deps) {
	user := middleware.CurrentUser(c)

	c.JSON(http.StatusOK, meResponse{
		User:            user,
		GoogleConnected: user.Linked(),
	})
}

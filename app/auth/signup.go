// Package auth contains the signup, login and identity endpoints
package auth

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/internal/service"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func Signup(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	res, err := d.Accounts.Signup(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	if res.Invite != nil {
		c.JSON(http.StatusAccepted, gin.H{
			"message":   "Request sent to the YouTuber. You can log in once they approve it.",
			"expiresAt": res.Invite.ExpiresAt,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": res.Token,
		"role":  res.User.Role,
		"user":  res.User,
	})
}

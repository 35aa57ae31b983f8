package team

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/internal/apperr"
	"vidcollab/api/pkg/middleware"
	"vidcollab/api/pkg/validators"

	"github.com/gin-gonic/gin"
)

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite emails a signup link to a prospective editor
func Invite(c *gin.Context, d *internal.Deps) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, apperr.Wrap(apperr.KindValidation, "Invalid request body", err))
		return
	}

	email := validators.NormalizeEmail(req.Email)
	if err := validators.EmailValidator(email); err != nil {
		middleware.Abort(c, apperr.Wrap(apperr.KindValidation, "Invalid email address", err))
		return
	}

	if err := d.Team.Invite(c.Request.Context(), middleware.CurrentUser(c), email); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
}

func PendingInvites(c *gin.Context, d *internal.Deps) {
	invites, err := d.Team.PendingInvites(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

func ApproveInvite(c *gin.Context, d *internal.Deps) {
	editor, err := d.Team.ApproveInvite(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Editor approved",
		"editor":  editor,
	})
}

type denyRequest struct {
	Reason string `json:"reason"`
}

func DenyInvite(c *gin.Context, d *internal.Deps) {
	// The reason is optional, so an empty body is fine
	var req denyRequest
	_ = c.ShouldBindJSON(&req)

	if err := d.Team.DenyInvite(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Reason); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite denied"})
}

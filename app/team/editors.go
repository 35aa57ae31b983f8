// Package team contains the youtuber's team management endpoints
package team

import (
	"net/http"

	"vidcollab/api/internal"
	"vidcollab/api/internal/model"
	"vidcollab/api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func Editors(c *gin.Context, d *internal.Deps) {
	editors, err := d.Team.Editors(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, editors)
}

func Activate(c *gin.Context, d *internal.Deps) {
	setStatus(c, d, model.UserActive)
}

func Deactivate(c *gin.Context, d *internal.Deps) {
	setStatus(c, d, model.UserInactive)
}

func setStatus(c *gin.Context, d *internal.Deps, status model.UserStatus) {
	editor, err := d.Team.SetEditorStatus(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), status)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Editor " + string(status),
		"editor":  editor,
	})
}

func Remove(c *gin.Context, d *internal.Deps) {
	if err := d.Team.RemoveEditor(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Editor removed"})
}

func History(c *gin.Context, d *internal.Deps) {
	h, err := d.Team.EditorHistory(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, h)
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"vidcollab/api/internal/apperr"
	"vidcollab/api/internal/model"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to an active user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// NewAuthMiddleware requires an "Authorization: Bearer" session token. The
// user is loaded on every request so deactivated editors are locked out
// immediately rather than when their token expires.
func NewAuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing token",
				"requestID": requestID,
			})
			return
		}

		user, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			Abort(c, err)
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// RequireRole lets only the given roles through. Must run after the auth
// middleware.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)

		for _, r := range roles {
			if user != nil && user.Role == r {
				c.Next()
				return
			}
		}

		Abort(c, apperr.New(apperr.KindForbidden, "Forbidden"))
	}
}

// CurrentUser returns the user set by the auth middleware, or nil
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}

	u, _ := v.(*model.User)
	return u
}

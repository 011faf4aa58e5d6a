package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/service"
)

const contextKeyUser = "user"

// RequireAuth validates the bearer token and stores the live directory user
// in the request context.
func RequireAuth(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no authorization token provided", "code": "UNAUTHORIZED"})
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format", "code": "UNAUTHORIZED"})
			c.Abort()
			return
		}

		user, err := authSvc.Authenticate(parts[1])
		if err != nil {
			c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error(), "code": apperrors.CodeOf(err)})
			c.Abort()
			return
		}
		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// RequireAdmin allows only administrators past; it must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "not enough permissions", "code": "FORBIDDEN"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth.
func CurrentUser(c *gin.Context) models.User {
	value, ok := c.Get(contextKeyUser)
	if !ok {
		return models.User{}
	}
	user, _ := value.(models.User)
	return user
}

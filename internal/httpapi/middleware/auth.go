package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fablesmith/storyforge/internal/auth"
	"github.com/fablesmith/storyforge/internal/common"
	"github.com/fablesmith/storyforge/internal/models"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "user_role"
)

// AuthRequired verifies the Bearer token and injects the user id and role
// into the request context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		uid, role, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		c.Set(UserIDKey, uid)
		c.Set(RoleKey, role)
		c.Next()
	}
}

// RequireRole gates a route to one exact role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(RoleKey)
		got, _ := v.(models.Role)
		if !ok || got != role {
			common.Fail(c, http.StatusForbidden, 40301, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

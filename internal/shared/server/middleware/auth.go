package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	userRoleKey = "userRole"
)

// RoleOfficer marks back-office staff allowed to run verification,
// risk assessment and decision operations.
const RoleOfficer = "officer"

// Identity reads the caller identity from request headers and stores it
// in the gin context. The gateway in front of this service authenticates
// callers and forwards X-User-Id / X-User-Role.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
			return
		}

		c.Set(userIDKey, userID)
		if role := strings.TrimSpace(c.GetHeader("X-User-Role")); role != "" {
			c.Set(userRoleKey, role)
		}
		c.Next()
	}
}

// RequireRole rejects requests whose identity does not carry the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserRoleFromContext(c) != role {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserRoleFromContext fetches the role set by the identity middleware.
func UserRoleFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userRoleKey)
	if role, ok := val.(string); ok {
		return role
	}
	return ""
}

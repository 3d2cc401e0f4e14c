package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// userIDKey is the Gin context key holding the caller's identity.
	userIDKey = "userID"
	// UserIDHeader carries the caller identity set by the storefront gateway.
	UserIDHeader = "X-User-ID"
	// AnonymousUser is used when no identity reached the service.
	AnonymousUser = "demo-user"
)

// Identity stores the caller's user id in the Gin context. Authentication
// happens upstream; this only trusts the gateway header. An id already set by
// earlier middleware wins.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(userIDKey); !ok {
			if h := strings.TrimSpace(c.GetHeader(UserIDHeader)); h != "" {
				c.Set(userIDKey, h)
			}
		}
		c.Next()
	}
}

// UserID returns the identity stored by Identity, falling back to the
// X-User-ID header and finally to AnonymousUser.
func UserID(c *gin.Context) string {
	if c == nil {
		return AnonymousUser
	}
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(UserIDHeader)); h != "" {
			return h
		}
	}
	return AnonymousUser
}

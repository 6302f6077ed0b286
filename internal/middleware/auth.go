package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionUserID = "user_id"
)

// RequireUser rejects requests without a signed-in session. The connect and
// disconnect routes operate on the session user's connections, so an
// anonymous request has nothing to act on.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserID)

		if userID == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "sign in before managing connections",
			})
			return
		}

		c.Set(SessionUserID, userID)
		c.Next()
	}
}

// CurrentUserID returns the signed-in user id placed by RequireUser.
func CurrentUserID(c *gin.Context) string {
	if id, ok := c.Get(SessionUserID); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

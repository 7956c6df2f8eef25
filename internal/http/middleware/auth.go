package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartbus/internal/services"
)

const userIDKey = "user_id"

// TokenFromHeader reads "Authorization: Bearer <t>" or x-auth-token.
func TokenFromHeader(h http.Header) string {
	if auth := strings.TrimSpace(h.Get("Authorization")); auth != "" {
		if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			return strings.TrimSpace(auth[7:])
		}
		return auth
	}
	return strings.TrimSpace(h.Get("x-auth-token"))
}

// Auth rejects requests without a valid token and stores the user id.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromHeader(c.Request.Header)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message":    "No token, authorization denied",
				"request_id": GetRequestID(c),
			})
			return
		}
		claims, err := services.ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message":    err.Error(),
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Set(userIDKey, claims.User.ID)
		c.Next()
	}
}

// UserID returns the authenticated user id, or 0.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

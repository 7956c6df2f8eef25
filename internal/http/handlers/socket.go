package handlers

import (
	"net/http"
	"strings"

	"smartbus/internal/http/middleware"
	"smartbus/internal/services"
	"smartbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// GET /socket?token=...
// The token may also come from Authorization or x-auth-token. Invalid tokens
// are rejected before the upgrade.
func Socket(c *gin.Context) {
	d := current()
	if d.Hub == nil {
		RespondError(c, http.StatusServiceUnavailable, "realtime channel disabled", nil)
		return
	}
	raw := strings.TrimSpace(c.Query("token"))
	if raw == "" {
		raw = middleware.TokenFromHeader(c.Request.Header)
	}
	if raw == "" {
		RespondError(c, http.StatusUnauthorized, "Authentication error", nil)
		return
	}
	claims, err := services.ParseToken(d.JWTSecret, raw)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "Authentication error", err)
		return
	}
	if err := d.Hub.Serve(c.Writer, c.Request, claims.User.ID); err != nil {
		// the upgrader has already written the error response
		utils.LogError(middleware.GetRequestID(c), "socket", "upgrade", err)
	}
}

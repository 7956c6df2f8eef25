package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"smartbus/internal/http/middleware"
	"smartbus/internal/utils"

	"github.com/gin-gonic/gin"
)

const serverErrorMessage = "Server Error"

// RespondError sends the standard error payload. "message" is always set;
// the underlying error is included when given.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"success":    false,
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "Request body is required.", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid request payload.", err)
		return false
	}
	return true
}

// idParam parses a positive path parameter, answering 400 with msg when it
// is missing or malformed.
func idParam(c *gin.Context, name, msg string) (int64, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		RespondError(c, http.StatusBadRequest, msg, nil)
		return 0, false
	}
	return id, true
}

// optionalIDQuery returns 0 when the query parameter is absent or invalid.
func optionalIDQuery(c *gin.Context, name string) int64 {
	id, _ := utils.ParseID(c.Query(name))
	return id
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

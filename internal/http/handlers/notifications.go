package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

const notificationIDRequired = "Notification ID is required"

type createNotificationRequest struct {
	UserID   int64  `json:"user_id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	BusID    *int64 `json:"bus_id"`
	RouteID  *int64 `json:"route_id"`
}

// GET /api/notifications?type=&priority=&is_read=&limit=&offset=
func ListNotifications(c *gin.Context) {
	f := models.NotificationFilter{
		UserID:   middleware.UserID(c),
		Type:     strings.TrimSpace(c.Query("type")),
		Priority: strings.TrimSpace(c.Query("priority")),
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("is_read")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.IsRead = &v
		}
	}
	list, err := notificationService(c).List(c.Request.Context(), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": list.Notifications,
		"unread_count":  list.UnreadCount,
		"total_count":   list.TotalCount,
	})
}

// GET /api/notifications/unread-count
func UnreadCount(c *gin.Context) {
	n, err := notificationService(c).UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "unread_count": n})
}

// PATCH /api/notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c, "id", notificationIDRequired)
	if !ok {
		return
	}
	if err := notificationService(c).MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

// PATCH /api/notifications/mark-all-read
func MarkAllNotificationsRead(c *gin.Context) {
	n, err := notificationService(c).MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("%d notifications marked as read", n)})
}

// POST /api/notifications
func CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	n, err := notificationService(c).Create(c.Request.Context(), models.NewNotification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     domain.NotificationType(strings.TrimSpace(req.Type)),
		Priority: domain.Priority(strings.TrimSpace(req.Priority)),
		BusID:    req.BusID,
		RouteID:  req.RouteID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Notification created successfully",
		"notification": n,
	})
}

// DELETE /api/notifications/:id
func DeleteNotification(c *gin.Context) {
	id, ok := idParam(c, "id", notificationIDRequired)
	if !ok {
		return
	}
	if err := notificationService(c).Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted successfully"})
}

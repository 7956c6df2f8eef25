package services

import (
	"context"
	"fmt"
	"strings"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/repositories"
	"smartbus/internal/utils"
)

// Socket event names.
const (
	EventBusLocationUpdate   = "bus-location-update"
	EventNewNotification     = "new_notification"
	EventUrgentNotifications = "urgent_notifications"
)

const defaultNotificationLimit = 50

// Broadcaster delivers socket events. The realtime hub implements it.
type Broadcaster interface {
	EmitToUser(userID int64, event string, payload any)
	EmitAll(event string, payload any)
}

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
	TotalCount    int                   `json:"total_count"`
}

type NotificationService struct {
	Repo      repositories.NotificationRepository
	Hub       Broadcaster
	RequestID string
}

func (s NotificationService) List(ctx context.Context, f models.NotificationFilter) (NotificationList, error) {
	if f.Limit <= 0 {
		f.Limit = defaultNotificationLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	items, err := s.Repo.List(ctx, f)
	if err != nil {
		return NotificationList{}, err
	}
	unread, err := s.Repo.UnreadCount(ctx, f.UserID)
	if err != nil {
		return NotificationList{}, err
	}
	return NotificationList{Notifications: items, UnreadCount: unread, TotalCount: len(items)}, nil
}

func (s NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.Repo.UnreadCount(ctx, userID)
}

func (s NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if err := s.Repo.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "notifications", "mark_read",
		fmt.Sprintf("user_id=%d notification_id=%d", userID, notificationID))
	return nil
}

func (s NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.Repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	utils.LogEvent(s.RequestID, "notifications", "mark_all_read", fmt.Sprintf("user_id=%d count=%d", userID, n))
	return n, nil
}

func (s NotificationService) Delete(ctx context.Context, userID, notificationID int64) error {
	return s.Repo.Delete(ctx, userID, notificationID)
}

// Create stores a notification and pushes it to the owner's room, and to
// everyone when it is urgent.
func (s NotificationService) Create(ctx context.Context, in models.NewNotification) (models.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.UserID <= 0 || in.Title == "" || in.Message == "" {
		return models.Notification{}, domain.ValidationError{Msg: "user_id, title, and message are required"}
	}
	if in.Type == "" {
		in.Type = domain.NotificationGeneral
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Type.Valid() {
		return models.Notification{}, domain.ValidationError{
			Field: "type",
			Msg:   "Invalid type. Must be one of: " + domain.JoinNotificationTypes(),
		}
	}
	if !in.Priority.Valid() {
		return models.Notification{}, domain.ValidationError{
			Field: "priority",
			Msg:   "Invalid priority. Must be one of: " + domain.JoinPriorities(),
		}
	}

	id, err := s.Repo.Create(ctx, in)
	if err != nil {
		return models.Notification{}, err
	}
	n, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.Notification{}, err
	}

	if s.Hub != nil {
		s.Hub.EmitToUser(n.UserID, EventNewNotification, []models.NotificationPush{n.Push()})
		if n.IsUrgent() {
			s.Hub.EmitAll(EventUrgentNotifications, []models.UrgentPush{n.Urgent()})
		}
	}
	utils.LogEvent(s.RequestID, "notifications", "create",
		fmt.Sprintf("notification_id=%d user_id=%d priority=%s", n.NotificationID, n.UserID, n.Priority))
	return n, nil
}

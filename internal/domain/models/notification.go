package models

import (
	"time"

	"smartbus/internal/domain"
)

type Notification struct {
	NotificationID  int64                   `json:"notification_id"`
	UserID          int64                   `json:"user_id"`
	Title           string                  `json:"title"`
	Message         string                  `json:"message"`
	Type            domain.NotificationType `json:"type"`
	Priority        domain.Priority         `json:"priority"`
	IsRead          bool                    `json:"is_read"`
	BusID           *int64                  `json:"bus_id"`
	RouteID         *int64                  `json:"route_id"`
	CreatedAt       time.Time               `json:"created_at"`
	BusNumber       *string                 `json:"bus_number"`
	SourceName      *string                 `json:"source_name"`
	DestinationName *string                 `json:"destination_name"`
}

type NotificationFilter struct {
	UserID   int64
	Type     string
	Priority string
	IsRead   *bool
	Limit    int
	Offset   int
}

type NewNotification struct {
	UserID   int64
	Title    string
	Message  string
	Type     domain.NotificationType
	Priority domain.Priority
	BusID    *int64
	RouteID  *int64
}

// NotificationPush is the per-user socket payload of a notification.
type NotificationPush struct {
	NotificationID  int64                   `json:"notification_id"`
	Title           string                  `json:"title"`
	Message         string                  `json:"message"`
	Type            domain.NotificationType `json:"type"`
	Priority        domain.Priority         `json:"priority"`
	BusID           *int64                  `json:"bus_id"`
	RouteID         *int64                  `json:"route_id"`
	BusNumber       *string                 `json:"bus_number"`
	SourceName      *string                 `json:"source_name"`
	DestinationName *string                 `json:"destination_name"`
	CreatedAt       time.Time               `json:"created_at"`
	Timestamp       time.Time               `json:"timestamp"`
}

// UrgentPush is the trimmed payload broadcast to every client.
type UrgentPush struct {
	NotificationID int64                   `json:"notification_id"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Type           domain.NotificationType `json:"type"`
	Priority       domain.Priority         `json:"priority"`
	CreatedAt      time.Time               `json:"created_at"`
}

func (n Notification) Push() NotificationPush {
	return NotificationPush{
		NotificationID:  n.NotificationID,
		Title:           n.Title,
		Message:         n.Message,
		Type:            n.Type,
		Priority:        n.Priority,
		BusID:           n.BusID,
		RouteID:         n.RouteID,
		BusNumber:       n.BusNumber,
		SourceName:      n.SourceName,
		DestinationName: n.DestinationName,
		CreatedAt:       n.CreatedAt,
		Timestamp:       n.CreatedAt,
	}
}

func (n Notification) Urgent() UrgentPush {
	return UrgentPush{
		NotificationID: n.NotificationID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           n.Type,
		Priority:       n.Priority,
		CreatedAt:      n.CreatedAt,
	}
}

func (n Notification) IsUrgent() bool { return n.Priority == domain.PriorityUrgent }

package domain

import "strings"

// NotificationType is the notifications.type enum.
type NotificationType string

const (
	NotificationBusArrival   NotificationType = "bus_arrival"
	NotificationBusDelay     NotificationType = "bus_delay"
	NotificationBusCancelled NotificationType = "bus_cancelled"
	NotificationRouteChange  NotificationType = "route_change"
	NotificationServiceAlert NotificationType = "service_alert"
	NotificationEmergency    NotificationType = "emergency"
	NotificationGeneral      NotificationType = "general"
)

var NotificationTypes = []NotificationType{
	NotificationBusArrival,
	NotificationBusDelay,
	NotificationBusCancelled,
	NotificationRouteChange,
	NotificationServiceAlert,
	NotificationEmergency,
	NotificationGeneral,
}

func (t NotificationType) Valid() bool {
	for _, v := range NotificationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Priority is the notifications.priority enum.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// StopStatus labels a stop inside a timeline.
type StopStatus string

const (
	StopCompleted StopStatus = "completed"
	StopCurrent   StopStatus = "current"
	StopUpcoming  StopStatus = "upcoming"
)

// TimelineMode tells whether a timeline came from a live driver session.
type TimelineMode string

const (
	ModeRealTime TimelineMode = "real_time"
	ModeStatic   TimelineMode = "static"
)

// Bus status values used by the live queries.
const (
	BusAvailable = "available"
	BusRunning   = "running"
)

// JoinNotificationTypes renders the allowed types for error messages.
func JoinNotificationTypes() string {
	parts := make([]string, 0, len(NotificationTypes))
	for _, t := range NotificationTypes {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

func JoinPriorities() string {
	parts := make([]string, 0, len(Priorities))
	for _, p := range Priorities {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ", ")
}

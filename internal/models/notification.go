package models

// NotificationType is the severity of a user-visible message.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationDanger  NotificationType = "danger"
)

// Notification is a transient message pushed to the map consumer.
type Notification struct {
	Type    NotificationType `json:"type"`
	Title   string           `json:"title,omitempty"`
	Message string           `json:"message"`
}

package model

import "time"

// NotificationType classifies why a notification was created.
type NotificationType string

const (
	NotificationAssignment   NotificationType = "assignment"
	NotificationStatusUpdate NotificationType = "status_update"
	NotificationComment      NotificationType = "comment"
	NotificationOverdue      NotificationType = "overdue"
)

// Notification is immutable after creation except for the read flag,
// which the presentation layer flips.
type Notification struct {
	ID          int              `json:"id"`
	MilestoneID int              `json:"milestone_id"`
	UserID      int              `json:"user_id"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

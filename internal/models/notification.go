package models

import (
	"time"
)

// NotificationType tags the action that produced a notification.
type NotificationType string

const (
	// NotificationTypeFollow is created when someone follows the recipient.
	NotificationTypeFollow NotificationType = "follow"
	// NotificationTypeLike is created when someone likes the recipient's post.
	NotificationTypeLike NotificationType = "like"
	// NotificationTypeComment is created when someone comments on the recipient's post.
	NotificationTypeComment NotificationType = "comment"
	// NotificationTypeSystem is reserved for application-originated notices.
	NotificationTypeSystem NotificationType = "system"
)

// Notification is a per-user inbox entry created as a side effect of
// follow/like/comment actions. Never created when the acting user is the
// recipient.
type Notification struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index" json:"user_id"`
	Type       NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title      string           `gorm:"not null" json:"title"`
	Message    string           `json:"message"`
	FromUserID uint             `json:"from_user_id"`
	FromUser   *User            `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	Read       bool             `gorm:"default:false" json:"read"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
}

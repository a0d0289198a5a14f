package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation represents a direct-message thread between exactly two
// users. LastMessageAt orders the conversation list and is bumped on each
// appended message (last write wins across concurrent senders).
type Conversation struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	LastMessageAt time.Time      `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Participants  []User         `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages      []Message      `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// HasParticipant reports whether the user is one of the two participants.
func (c *Conversation) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Message represents a direct message. Messages are append-only within a
// conversation and ordered by creation time ascending.
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint           `gorm:"not null;index" json:"sender_id"`
	Sender         *User          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Text           string         `gorm:"type:text;not null" json:"text"`
	Read           bool           `gorm:"default:false" json:"read"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// ConversationParticipant is the join table backing the many2many
// relationship between conversations and users.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

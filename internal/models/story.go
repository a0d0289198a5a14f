package models

import (
	"time"
)

// StoryTTL is how long a story remains visible after creation. Expired
// rows are filtered out of every read and hard-deleted by the reaper.
const StoryTTL = 24 * time.Hour

// Story is an ephemeral single-image post. Immutable after creation.
type Story struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Image     string    `gorm:"not null" json:"image"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Expired reports whether the story has outlived its TTL at the given
// reference time.
func (s *Story) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) >= StoryTTL
}

// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a profile backed by an identity at the external auth
// provider. Exactly one User exists per provider subject; the record is
// created lazily on the first authenticated request.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SubjectID string         `gorm:"uniqueIndex;not null" json:"-"`
	Handle    string         `gorm:"unique;not null" json:"handle"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `json:"email,omitempty"`
	Avatar    string         `json:"avatar"`
	Bio       string         `json:"bio"`
	Verified  bool           `gorm:"default:false" json:"verified"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`

	// FollowersCount and FollowingCount are not persisted; computed at query time.
	FollowersCount int `gorm:"->" json:"followers_count"`
	FollowingCount int `gorm:"->" json:"following_count"`
}

// UserSummary is the resolved identity shape embedded in denormalized
// reads (message senders, comment authors, notification origins).
type UserSummary struct {
	ID     uint   `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Summary projects the user onto its embedded read shape.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Handle: u.Handle, Name: u.Name, Avatar: u.Avatar}
}

// Follow is a directed edge in the social graph.
// The combination of FollowerID and FolloweeID must be unique.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follower_followee" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follower_followee" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a feed post. Likes, shares and bookmarks are membership
// sets stored in their own tables; comments are an ordered child list.
type Post struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Images    []string       `gorm:"serializer:json" json:"images"`
	Hashtags  []string       `gorm:"serializer:json" json:"hashtags"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Counts are not persisted; computed at query time
	LikesCount    int `gorm:"->" json:"likes_count"`
	SharesCount   int `gorm:"->" json:"shares_count"`
	CommentsCount int `gorm:"->" json:"comments_count"`
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Share represents a user's share of a post, symmetric to Like.
type Share struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_share_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_share_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark represents a user's private save of a post.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostView is the canonical API shape for a post. Membership sets are
// always bare user-ID lists, never resolved user objects; every endpoint
// that returns a post returns this shape.
type PostView struct {
	ID            uint          `json:"id"`
	Author        UserSummary   `json:"author"`
	Content       string        `json:"content"`
	Images        []string      `json:"images"`
	Hashtags      []string      `json:"hashtags"`
	LikeUserIDs   []uint        `json:"like_user_ids"`
	ShareUserIDs  []uint        `json:"share_user_ids"`
	LikesCount    int           `json:"likes_count"`
	SharesCount   int           `json:"shares_count"`
	CommentsCount int           `json:"comments_count"`
	Comments      []CommentView `json:"comments,omitempty"`
	Liked         bool          `json:"liked"`
	Shared        bool          `json:"shared"`
	Bookmarked    bool          `json:"bookmarked"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewPostView builds the API shape for a post as seen by the current user.
// likeUserIDs and shareUserIDs are the membership sets in insertion order;
// the viewer's flags are derived from them.
func NewPostView(p *Post, likeUserIDs, shareUserIDs []uint, bookmarked bool, currentUserID uint) *PostView {
	if likeUserIDs == nil {
		likeUserIDs = []uint{}
	}
	if shareUserIDs == nil {
		shareUserIDs = []uint{}
	}

	view := &PostView{
		ID:            p.ID,
		Author:        p.Author.Summary(),
		Content:       p.Content,
		Images:        p.Images,
		Hashtags:      p.Hashtags,
		LikeUserIDs:   likeUserIDs,
		ShareUserIDs:  shareUserIDs,
		LikesCount:    len(likeUserIDs),
		SharesCount:   len(shareUserIDs),
		CommentsCount: len(p.Comments),
		Bookmarked:    bookmarked,
		CreatedAt:     p.CreatedAt,
	}
	if view.Images == nil {
		view.Images = []string{}
	}
	if view.Hashtags == nil {
		view.Hashtags = []string{}
	}

	for _, id := range likeUserIDs {
		if id == currentUserID {
			view.Liked = true
			break
		}
	}
	for _, id := range shareUserIDs {
		if id == currentUserID {
			view.Shared = true
			break
		}
	}

	view.Comments = make([]CommentView, len(p.Comments))
	for i, c := range p.Comments {
		view.Comments[i] = CommentView{
			ID:        c.ID,
			User:      c.User.Summary(),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
	}
	return view
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        uint        `json:"id"`
	User      UserSummary `json:"user"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// HashtagCount is one row of the trending aggregation. Duplicate tags
// within a single post each count, which is what gives repeated tags
// extra trending weight.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

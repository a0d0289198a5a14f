package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix          = "user:%d"
	PostKeyPrefix          = "post:%d"
	FeedKeyPrefix          = "feed:%d:page:%d"
	StoriesKey             = "stories:active"
	TrendingKey            = "hashtags:trending"
	ConversationsKeyPrefix = "user:%d:conversations"
)

const (
	UserTTL          = 5 * time.Minute
	PostTTL          = 30 * time.Minute
	FeedTTL          = 30 * time.Second
	StoriesTTL       = time.Minute
	TrendingTTL      = 5 * time.Minute
	ConversationsTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FeedKey(userID uint, page int) string {
	return fmt.Sprintf(FeedKeyPrefix, userID, page)
}

func ConversationsKey(userID uint) string {
	return fmt.Sprintf(ConversationsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateConversations(ctx context.Context, userID uint) {
	Invalidate(ctx, ConversationsKey(userID))
}

func InvalidateStories(ctx context.Context) {
	Invalidate(ctx, StoriesKey)
}

// InvalidateFeeds drops all cached feed pages. Feed keys are per-user and
// per-page, so a new post has to sweep the whole keyspace.
func InvalidateFeeds(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "feed:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

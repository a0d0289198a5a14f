package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no tags", "just some text", []string{}},
		{"single tag", "check out #golang", []string{"#golang"}},
		{"lowercased", "Loving #GoLang today", []string{"#golang"}},
		{"duplicates kept", "Hello #world #World", []string{"#world", "#world"}},
		{"mixed punctuation", "#go, #fiber! and #go.", []string{"#go", "#fiber", "#go"}},
		{"underscore and digits", "#web3 #my_tag", []string{"#web3", "#my_tag"}},
		{"bare hash ignored", "# not a tag", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHashtags(tt.text))
		})
	}
}

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	author := seedUser(t, db, "author")

	notifRepo := &notificationRepoStub{}
	notifications := NewNotificationService(notifRepo, nil)
	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db), notifications)

	t.Run("rejects empty post", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "   "})
		require.Error(t, err)

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("rejects oversized content", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Content:  strings.Repeat("a", maxPostContentLen+1),
		})
		require.Error(t, err)
	})

	t.Run("rejects too many images", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Images:   []string{"a.png", "b.png", "c.png", "d.png", "e.png"},
		})
		require.Error(t, err)
	})

	t.Run("image-only post is allowed", func(t *testing.T) {
		view, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Images:   []string{"a.png"},
		})
		require.NoError(t, err)
		assert.Empty(t, view.Content)
		assert.Equal(t, []string{"a.png"}, view.Images)
	})

	t.Run("hashtags extracted from content", func(t *testing.T) {
		view, err := svc.CreatePost(ctx, CreatePostInput{
			AuthorID: author.ID,
			Content:  "Shipping #Ripple with #golang",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"#ripple", "#golang"}, view.Hashtags)
		assert.Equal(t, "author", view.Author.Handle)
	})
}

func TestPostService_Toggles(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")

	notifRepo := &notificationRepoStub{}
	notifications := NewNotificationService(notifRepo, nil)
	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db), notifications)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "hello"})
	require.NoError(t, err)

	t.Run("like toggles on and off", func(t *testing.T) {
		view, err := svc.ToggleLike(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, view.Liked)
		assert.Equal(t, 1, view.LikesCount)
		assert.Equal(t, []uint{fan.ID}, view.LikeUserIDs)

		view, err = svc.ToggleLike(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.False(t, view.Liked)
		assert.Equal(t, 0, view.LikesCount)
	})

	t.Run("new like notifies the author", func(t *testing.T) {
		before := len(notifRepo.created)
		_, err := svc.ToggleLike(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		require.Len(t, notifRepo.created, before+1)
		n := notifRepo.created[len(notifRepo.created)-1]
		assert.Equal(t, author.ID, n.UserID)
		assert.Equal(t, fan.ID, n.FromUserID)
		assert.Equal(t, models.NotificationTypeLike, n.Type)

		// Unlike does not notify.
		_, err = svc.ToggleLike(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.Len(t, notifRepo.created, before+1)
	})

	t.Run("author liking own post is not notified", func(t *testing.T) {
		before := len(notifRepo.created)
		_, err := svc.ToggleLike(ctx, author.ID, post.ID)
		require.NoError(t, err)
		assert.Len(t, notifRepo.created, before)
	})

	t.Run("share toggles on and off", func(t *testing.T) {
		view, err := svc.ToggleShare(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, view.Shared)
		assert.Equal(t, []uint{fan.ID}, view.ShareUserIDs)

		view, err = svc.ToggleShare(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.False(t, view.Shared)
		assert.Equal(t, 0, view.SharesCount)
	})

	t.Run("bookmark is private to the caller", func(t *testing.T) {
		view, err := svc.ToggleBookmark(ctx, fan.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, view.Bookmarked)

		asAuthor, err := svc.GetPost(ctx, post.ID, author.ID)
		require.NoError(t, err)
		assert.False(t, asAuthor.Bookmarked)
	})

	t.Run("toggle on missing post returns not found", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, fan.ID, 9999)
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestPostService_Comments(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")

	notifRepo := &notificationRepoStub{}
	notifications := NewNotificationService(notifRepo, nil)
	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db), notifications)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "thoughts?"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, reader.ID, post.ID, "  ")
	require.Error(t, err)

	view, err := svc.AddComment(ctx, reader.ID, post.ID, "great post")
	require.NoError(t, err)
	assert.Equal(t, 1, view.CommentsCount)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "great post", view.Comments[0].Text)
	assert.Equal(t, "reader", view.Comments[0].User.Handle)

	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, models.NotificationTypeComment, notifRepo.created[0].Type)
	assert.Equal(t, author.ID, notifRepo.created[0].UserID)
}

func TestPostService_ListFeed(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	userRepo := repository.NewUserRepository(db)
	svc := NewPostService(repository.NewPostRepository(db), userRepo, nil)
	users := NewUserService(userRepo, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: bob.ID, Content: fmt.Sprintf("bob %d", i)})
		require.NoError(t, err)
		_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: carol.ID, Content: fmt.Sprintf("carol %d", i)})
		require.NoError(t, err)
	}

	t.Run("following filter with no follows falls back to global", func(t *testing.T) {
		views, err := svc.ListFeed(ctx, ListFeedInput{UserID: alice.ID, FollowingOnly: true})
		require.NoError(t, err)
		assert.Len(t, views, 6)
	})

	t.Run("following filter limits to followed authors", func(t *testing.T) {
		_, err := users.ToggleFollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		views, err := svc.ListFeed(ctx, ListFeedInput{UserID: alice.ID, FollowingOnly: true})
		require.NoError(t, err)
		require.Len(t, views, 3)
		for _, v := range views {
			assert.Equal(t, "bob", v.Author.Handle)
		}
	})

	t.Run("own posts stay out of the following feed", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: alice.ID, Content: "mine"})
		require.NoError(t, err)

		views, err := svc.ListFeed(ctx, ListFeedInput{UserID: alice.ID, FollowingOnly: true})
		require.NoError(t, err)
		require.Len(t, views, 3)
		for _, v := range views {
			assert.Equal(t, "bob", v.Author.Handle)
		}
	})

	t.Run("global feed paginates at page size", func(t *testing.T) {
		for i := 0; i < FeedPageSize; i++ {
			_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: carol.ID, Content: fmt.Sprintf("filler %d", i)})
			require.NoError(t, err)
		}

		page1, err := svc.ListFeed(ctx, ListFeedInput{UserID: alice.ID, Page: 1})
		require.NoError(t, err)
		assert.Len(t, page1, FeedPageSize)

		// page 0 and negatives clamp to the first page
		clamped, err := svc.ListFeed(ctx, ListFeedInput{UserID: alice.ID, Page: 0})
		require.NoError(t, err)
		assert.Equal(t, page1[0].ID, clamped[0].ID)

		page2, err := svc.ListFeed(ctx, ListFeedInput{UserID: alice.ID, Page: 2})
		require.NoError(t, err)
		require.NotEmpty(t, page2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	author := seedUser(t, db, "author")
	other := seedUser(t, db, "other")

	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db), nil)

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: "mine"})
	require.NoError(t, err)

	err = svc.DeletePost(ctx, other.ID, post.ID)
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	require.NoError(t, svc.DeletePost(ctx, author.ID, post.ID))

	_, err = svc.GetPost(ctx, post.ID, author.ID)
	require.Error(t, err)
}

func TestPostService_TrendingHashtags(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	author := seedUser(t, db, "author")

	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db), nil)

	posts := []string{
		"#go is great",
		"more #go and some #fiber",
		"just #fiber",
		"#alpha #beta",
	}
	for _, content := range posts {
		_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Content: content})
		require.NoError(t, err)
	}

	counts, err := svc.TrendingHashtags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, counts, 4)

	assert.Equal(t, models.HashtagCount{Tag: "#fiber", Count: 2}, counts[0])
	assert.Equal(t, models.HashtagCount{Tag: "#go", Count: 2}, counts[1])
	// Singles tie and come back alphabetically.
	assert.Equal(t, models.HashtagCount{Tag: "#alpha", Count: 1}, counts[2])
	assert.Equal(t, models.HashtagCount{Tag: "#beta", Count: 1}, counts[3])

	t.Run("limit truncates", func(t *testing.T) {
		top, err := svc.TrendingHashtags(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, top, 2)
	})
}

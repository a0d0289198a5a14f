package repository

import (
	"context"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPost(t *testing.T, db interface {
	Create(ctx context.Context, post *models.Post) error
}, authorID uint, content string, hashtags ...string) *models.Post {
	t.Helper()
	post := &models.Post{
		AuthorID: authorID,
		Content:  content,
		Hashtags: hashtags,
	}
	if err := db.Create(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ada")
	post := createTestPost(t, repo, author.ID, "Hello #world", "#world")

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello #world", got.Content)
	assert.Equal(t, []string{"#world"}, got.Hashtags)
	assert.Equal(t, "ada", got.Author.Handle)
	assert.Equal(t, 0, got.LikesCount)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 12345)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostRepository_LikeToggle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ada")
	liker := createTestUser(t, db, "bob")
	post := createTestPost(t, repo, author.ID, "content")

	created, err := repo.Like(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	// Duplicate like is swallowed by the conflict clause
	created, err = repo.Like(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)

	likers, err := repo.LikerIDs(ctx, []uint{post.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{liker.ID}, likers[post.ID])

	removed, err := repo.Unlike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Unlike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostRepository_ShareAndBookmarkToggle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ada")
	user := createTestUser(t, db, "bob")
	post := createTestPost(t, repo, author.ID, "content")

	created, err := repo.Share(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	sharers, err := repo.SharerIDs(ctx, []uint{post.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, sharers[post.ID])

	created, err = repo.Bookmark(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	bookmarked, err := repo.BookmarkedPostIDs(ctx, user.ID, []uint{post.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{post.ID}, bookmarked)

	removed, err := repo.Unbookmark(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	bookmarked, err = repo.BookmarkedPostIDs(ctx, user.ID, []uint{post.ID})
	require.NoError(t, err)
	assert.Empty(t, bookmarked)
}

func TestPostRepository_ListByAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	createTestPost(t, repo, alice.ID, "from alice")
	createTestPost(t, repo, bob.ID, "from bob")
	createTestPost(t, repo, carol.ID, "from carol")

	posts, err := repo.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	for _, p := range posts {
		assert.NotEqual(t, carol.ID, p.AuthorID)
	}

	// Empty author set short-circuits without touching the database
	posts, err = repo.ListByAuthors(ctx, nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostRepository_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ada")
	for i := 0; i < 5; i++ {
		post := &models.Post{AuthorID: author.ID, Content: "post"}
		require.NoError(t, db.Create(post).Error)
		// Stagger timestamps so ordering is deterministic
		require.NoError(t, db.Model(post).Update("created_at", time.Now().Add(time.Duration(i)*time.Second)).Error)
	}

	page1, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)

	assert.NotEqual(t, page1[0].ID, page2[0].ID)
	assert.True(t, page1[0].CreatedAt.After(page1[1].CreatedAt))
}

func TestPostRepository_CreateComment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ada")
	commenter := createTestUser(t, db, "bob")
	post := createTestPost(t, repo, author.ID, "content")

	comment := &models.Comment{PostID: post.ID, UserID: commenter.ID, Text: "nice"}
	require.NoError(t, repo.CreateComment(ctx, comment))
	assert.Equal(t, "bob", comment.User.Handle)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice", got.Comments[0].Text)
	assert.Equal(t, 1, got.CommentsCount)
}

func TestPostRepository_RecentHashtags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "ada")
	createTestPost(t, repo, author.ID, "a", "#go", "#go", "#redis")
	createTestPost(t, repo, author.ID, "b", "#go")

	tags, err := repo.RecentHashtags(ctx, time.Now().Add(-time.Hour), 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"#go", "#go", "#go", "#redis"}, tags)

	tags, err = repo.RecentHashtags(ctx, time.Now().Add(time.Hour), 100)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

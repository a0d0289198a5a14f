// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"ripple/internal/cache"
	"ripple/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByAuthorID(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error

	Like(ctx context.Context, userID, postID uint) (bool, error)
	Unlike(ctx context.Context, userID, postID uint) (bool, error)
	Share(ctx context.Context, userID, postID uint) (bool, error)
	Unshare(ctx context.Context, userID, postID uint) (bool, error)
	Bookmark(ctx context.Context, userID, postID uint) (bool, error)
	Unbookmark(ctx context.Context, userID, postID uint) (bool, error)

	LikerIDs(ctx context.Context, postIDs []uint) (map[uint][]uint, error)
	SharerIDs(ctx context.Context, postIDs []uint) (map[uint][]uint, error)
	BookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	RecentHashtags(ctx context.Context, since time.Time, maxPosts int) ([]string, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// applyPostDetails adds subqueries to fetch engagement counts in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count, " +
		"(SELECT COUNT(*) FROM shares WHERE shares.post_id = posts.id) as shares_count, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) as comments_count")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeeds(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx)).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByAuthorID(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx)).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx)).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx)).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	cache.InvalidateFeeds(ctx)
	return nil
}

// toggleInsert inserts a membership row, ignoring conflicts so concurrent
// toggles cannot produce duplicate rows. Returns true if the row was created.
func (r *postRepository) toggleInsert(ctx context.Context, row interface{}, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
	}
	return result.RowsAffected > 0, nil
}

// toggleDelete hard deletes a membership row. Returns true if a row was removed.
func (r *postRepository) toggleDelete(ctx context.Context, model interface{}, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(model)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
	}
	return result.RowsAffected > 0, nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return r.toggleInsert(ctx, &models.Like{UserID: userID, PostID: postID}, postID)
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	return r.toggleDelete(ctx, &models.Like{}, userID, postID)
}

func (r *postRepository) Share(ctx context.Context, userID, postID uint) (bool, error) {
	return r.toggleInsert(ctx, &models.Share{UserID: userID, PostID: postID}, postID)
}

func (r *postRepository) Unshare(ctx context.Context, userID, postID uint) (bool, error) {
	return r.toggleDelete(ctx, &models.Share{}, userID, postID)
}

func (r *postRepository) Bookmark(ctx context.Context, userID, postID uint) (bool, error) {
	return r.toggleInsert(ctx, &models.Bookmark{UserID: userID, PostID: postID}, postID)
}

func (r *postRepository) Unbookmark(ctx context.Context, userID, postID uint) (bool, error) {
	return r.toggleDelete(ctx, &models.Bookmark{}, userID, postID)
}

type userPostPair struct {
	UserID uint
	PostID uint
}

func (r *postRepository) pairsToMap(pairs []userPostPair) map[uint][]uint {
	out := make(map[uint][]uint, len(pairs))
	for _, p := range pairs {
		out[p.PostID] = append(out[p.PostID], p.UserID)
	}
	return out
}

func (r *postRepository) LikerIDs(ctx context.Context, postIDs []uint) (map[uint][]uint, error) {
	if len(postIDs) == 0 {
		return map[uint][]uint{}, nil
	}
	var pairs []userPostPair
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&pairs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.pairsToMap(pairs), nil
}

func (r *postRepository) SharerIDs(ctx context.Context, postIDs []uint) (map[uint][]uint, error) {
	if len(postIDs) == 0 {
		return map[uint][]uint{}, nil
	}
	var pairs []userPostPair
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Share{}).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&pairs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.pairsToMap(pairs), nil
}

func (r *postRepository) BookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(comment, comment.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

// RecentHashtags returns the hashtag lists of recent posts, flattened in post
// order. Tags are stored as JSON arrays on the post row, so aggregation
// happens in the service layer where it stays portable across drivers.
func (r *postRepository) RecentHashtags(ctx context.Context, since time.Time, maxPosts int) ([]string, error) {
	var posts []models.Post
	if err := readDB(r.db).WithContext(ctx).
		Select("hashtags").
		Where("created_at > ?", since).
		Order("created_at DESC").
		Limit(maxPosts).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	var tags []string
	for _, p := range posts {
		tags = append(tags, p.Hashtags...)
	}
	return tags, nil
}

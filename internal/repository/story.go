package repository

import (
	"context"
	"time"

	"ripple/internal/cache"
	"ripple/internal/models"

	"gorm.io/gorm"
)

// StoryRepository defines the interface for story data operations
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	ListActive(ctx context.Context, cutoff time.Time) ([]*models.Story, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// storyRepository implements StoryRepository
type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(story, story.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateStories(ctx)
	return nil
}

// ListActive returns stories created after the cutoff, newest first. Expired
// rows still present in the table are filtered out here; the reaper removes
// them eventually.
func (r *storyRepository) ListActive(ctx context.Context, cutoff time.Time) ([]*models.Story, error) {
	var stories []*models.Story
	if err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("created_at > ?", cutoff).
		Order("created_at DESC").
		Find(&stories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stories, nil
}

func (r *storyRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at <= ?", cutoff).
		Delete(&models.Story{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidateStories(ctx)
	}
	return result.RowsAffected, nil
}

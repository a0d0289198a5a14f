package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ripple/internal/cache"
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/repository"
)

// StoryService provides ephemeral story business logic. Stories live for
// 24 hours: reads filter on creation time, and a background reaper removes
// expired rows.
type StoryService struct {
	storyRepo repository.StoryRepository
}

// NewStoryService returns a new StoryService.
func NewStoryService(storyRepo repository.StoryRepository) *StoryService {
	return &StoryService{storyRepo: storyRepo}
}

// CreateStory publishes a new story for the user.
func (s *StoryService) CreateStory(ctx context.Context, userID uint, image string) (*models.Story, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, models.NewValidationError("Story image is required")
	}

	story := &models.Story{
		UserID: userID,
		Image:  image,
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

// GetActiveStories returns all unexpired stories, newest first. Expiry is
// enforced at read time so a story disappears the moment it ages out, not
// when the reaper next runs. The list is cached briefly; new stories and the
// reaper invalidate it, and the short TTL bounds how long an aged-out story
// can linger in the cached page.
func (s *StoryService) GetActiveStories(ctx context.Context) ([]*models.Story, error) {
	var stories []*models.Story
	err := cache.Aside(ctx, cache.StoriesKey, &stories, cache.StoriesTTL, func() error {
		loaded, err := s.storyRepo.ListActive(ctx, time.Now().Add(-models.StoryTTL))
		if err != nil {
			return err
		}
		stories = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// ReapExpired deletes stories past their TTL and returns how many were removed.
func (s *StoryService) ReapExpired(ctx context.Context) (int64, error) {
	reaped, err := s.storyRepo.DeleteExpired(ctx, time.Now().Add(-models.StoryTTL))
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		observability.StoriesReaped.Add(float64(reaped))
	}
	return reaped, nil
}

// StartReaper runs the expiry reaper on the given interval until ctx is
// cancelled.
func (s *StoryService) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reaped, err := s.ReapExpired(ctx)
				if err != nil {
					middleware.Logger.ErrorContext(ctx, "story reaper failed", slog.String("error", err.Error()))
					continue
				}
				if reaped > 0 {
					middleware.Logger.InfoContext(ctx, "expired stories reaped", slog.Int64("count", reaped))
				}
			}
		}
	}()
}

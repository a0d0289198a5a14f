package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryService(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	alice := seedUser(t, db, "alice")

	svc := NewStoryService(repository.NewStoryRepository(db))

	t.Run("rejects story without image", func(t *testing.T) {
		_, err := svc.CreateStory(ctx, alice.ID, "   ")
		require.Error(t, err)

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("active stories exclude expired ones", func(t *testing.T) {
		story, err := svc.CreateStory(ctx, alice.ID, "fresh.png")
		require.NoError(t, err)
		assert.Equal(t, "alice", story.User.Handle)

		stale := &models.Story{
			UserID:    alice.ID,
			Image:     "stale.png",
			CreatedAt: time.Now().Add(-models.StoryTTL - time.Hour),
		}
		require.NoError(t, db.Create(stale).Error)

		active, err := svc.GetActiveStories(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "fresh.png", active[0].Image)
	})

	t.Run("reap deletes expired stories", func(t *testing.T) {
		reaped, err := svc.ReapExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), reaped)

		var remaining int64
		require.NoError(t, db.Model(&models.Story{}).Count(&remaining).Error)
		assert.Equal(t, int64(1), remaining)

		// Nothing left to reap.
		reaped, err = svc.ReapExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), reaped)
	})
}

package repository

import (
	"context"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryRepository_ListActiveFiltersExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada")

	fresh := &models.Story{UserID: user.ID, Image: "/media/fresh.jpg"}
	require.NoError(t, repo.Create(ctx, fresh))
	assert.Equal(t, "ada", fresh.User.Handle)

	stale := &models.Story{UserID: user.ID, Image: "/media/stale.jpg"}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, db.Model(stale).Update("created_at", time.Now().Add(-25*time.Hour)).Error)

	active, err := repo.ListActive(ctx, time.Now().Add(-models.StoryTTL))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)
	assert.Equal(t, "ada", active[0].User.Handle)
}

func TestStoryRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStoryRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "ada")

	fresh := &models.Story{UserID: user.ID, Image: "/media/fresh.jpg"}
	require.NoError(t, repo.Create(ctx, fresh))

	stale := &models.Story{UserID: user.ID, Image: "/media/stale.jpg"}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, db.Model(stale).Update("created_at", time.Now().Add(-25*time.Hour)).Error)

	reaped, err := repo.DeleteExpired(ctx, time.Now().Add(-models.StoryTTL))
	require.NoError(t, err)
	assert.Equal(t, int64(1), reaped)

	var count int64
	require.NoError(t, db.Model(&models.Story{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Nothing left to reap
	reaped, err = repo.DeleteExpired(ctx, time.Now().Add(-models.StoryTTL))
	require.NoError(t, err)
	assert.Zero(t, reaped)
}

func TestStory_Expired(t *testing.T) {
	now := time.Now()
	fresh := models.Story{CreatedAt: now.Add(-23 * time.Hour)}
	stale := models.Story{CreatedAt: now.Add(-25 * time.Hour)}

	assert.False(t, fresh.Expired(now))
	assert.True(t, stale.Expired(now))
}

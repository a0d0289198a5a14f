package service

import (
	"context"
	"errors"
	"testing"

	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_EnsureUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns existing user without creating", func(t *testing.T) {
		created := false
		users := noopUserRepo()
		users.getBySubjectFn = func(_ context.Context, subject string) (*models.User, error) {
			return &models.User{ID: 7, SubjectID: subject, Handle: "existing"}, nil
		}
		users.createFn = func(context.Context, *models.User) error {
			created = true
			return nil
		}
		svc := NewUserService(users, nil)

		user, err := svc.EnsureUser(ctx, &middleware.IdentityClaims{Subject: "idp|abc"})
		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)
		assert.False(t, created)
	})

	t.Run("creates on first sight with token profile", func(t *testing.T) {
		var got *models.User
		users := noopUserRepo()
		users.createFn = func(_ context.Context, u *models.User) error {
			got = u
			return nil
		}
		svc := NewUserService(users, nil)

		_, err := svc.EnsureUser(ctx, &middleware.IdentityClaims{
			Subject: "idp|abc",
			Name:    "Ada",
			Email:   "ada@example.com",
			Handle:  "ada",
		})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "idp|abc", got.SubjectID)
		assert.Equal(t, "ada", got.Handle)
		assert.Equal(t, "Ada", got.Name)
	})

	t.Run("derives handle when token has none", func(t *testing.T) {
		var got *models.User
		users := noopUserRepo()
		users.createFn = func(_ context.Context, u *models.User) error {
			got = u
			return nil
		}
		svc := NewUserService(users, nil)

		_, err := svc.EnsureUser(ctx, &middleware.IdentityClaims{Subject: "idp|Abc.Def"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "idp_abc_def", got.Handle)
	})

	t.Run("recovers when a concurrent request wins the insert", func(t *testing.T) {
		lookups := 0
		users := noopUserRepo()
		users.getBySubjectFn = func(_ context.Context, subject string) (*models.User, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return &models.User{ID: 3, SubjectID: subject}, nil
		}
		users.createFn = func(context.Context, *models.User) error {
			return models.NewValidationError("User already exists")
		}
		svc := NewUserService(users, nil)

		user, err := svc.EnsureUser(ctx, &middleware.IdentityClaims{Subject: "idp|abc"})
		require.NoError(t, err)
		assert.Equal(t, uint(3), user.ID)
		assert.Equal(t, 2, lookups)
	})

	t.Run("suffixes the handle when another subject owns it", func(t *testing.T) {
		taken := map[string]bool{"ada": true}
		var created *models.User
		users := noopUserRepo()
		users.createFn = func(_ context.Context, u *models.User) error {
			if taken[u.Handle] {
				return models.NewValidationError("Handle already taken")
			}
			created = u
			return nil
		}
		svc := NewUserService(users, nil)

		user, err := svc.EnsureUser(ctx, &middleware.IdentityClaims{Subject: "idp|other", Handle: "ada"})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "ada_2", user.Handle)
	})
}

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(noopUserRepo(), nil)

	empty := ""
	_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 1, Handle: &empty})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUserService_ToggleFollow(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	notifRepo := &notificationRepoStub{}
	svc := NewUserService(repository.NewUserRepository(db), NewNotificationService(notifRepo, nil))

	t.Run("rejects following yourself", func(t *testing.T) {
		_, err := svc.ToggleFollow(ctx, alice.ID, alice.ID)
		require.Error(t, err)

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("rejects unknown followee", func(t *testing.T) {
		_, err := svc.ToggleFollow(ctx, alice.ID, 9999)
		require.Error(t, err)

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("follow notifies the target", func(t *testing.T) {
		following, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)

		is, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, is)

		require.Len(t, notifRepo.created, 1)
		n := notifRepo.created[0]
		assert.Equal(t, bob.ID, n.UserID)
		assert.Equal(t, alice.ID, n.FromUserID)
		assert.Equal(t, models.NotificationTypeFollow, n.Type)
	})

	t.Run("second toggle unfollows without notifying", func(t *testing.T) {
		following, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, following)

		is, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, is)
		assert.Len(t, notifRepo.created, 1)
	})

	t.Run("re-follow notifies again", func(t *testing.T) {
		following, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)
		assert.Len(t, notifRepo.created, 2)
	})
}

func TestUserService_Profiles(t *testing.T) {
	ctx := context.Background()
	db := setupServiceDB(t)
	alice := seedUser(t, db, "alice")

	svc := NewUserService(repository.NewUserRepository(db), nil)

	profile, err := svc.GetProfileByHandle(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)

	_, err = svc.GetProfileByHandle(ctx, "nobody")
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	name := "Alice Liddell"
	bio := "curiouser and curiouser"
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Name: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, "curiouser and curiouser", updated.Bio)

	results, err := svc.ListUsers(ctx, "liddell", 20, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, alice.ID, results[0].ID)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ripple/internal/cache"
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"
)

// UserService provides user profile and follow graph business logic.
type UserService struct {
	userRepo     repository.UserRepository
	notification *NotificationService
}

// UpdateProfileInput is the input for updating a user profile.
type UpdateProfileInput struct {
	UserID uint
	Name   *string
	Bio    *string
	Avatar *string
	Handle *string
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, notification *NotificationService) *UserService {
	return &UserService{
		userRepo:     userRepo,
		notification: notification,
	}
}

// EnsureUser resolves the identity provider subject to a local user,
// creating the account on first sight. Profile fields from the token only
// seed the initial record; later edits are owned locally.
func (s *UserService) EnsureUser(ctx context.Context, claims *middleware.IdentityClaims) (*models.User, error) {
	user, err := s.userRepo.GetBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	handle := claims.Handle
	if handle == "" {
		handle = deriveHandle(claims.Subject)
	}

	// The handle is unique; if another subject already claimed it, retry
	// with a numeric suffix.
	var lastErr error
	for attempt := 0; attempt < 4; attempt++ {
		candidate := handle
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d", handle, attempt+1)
		}

		user = &models.User{
			SubjectID: claims.Subject,
			Handle:    candidate,
			Name:      claims.Name,
			Email:     claims.Email,
		}
		err := s.userRepo.Create(ctx, user)
		if err == nil {
			return user, nil
		}

		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
			return nil, err
		}
		// A concurrent first request may have won the insert
		if existing, lookupErr := s.userRepo.GetBySubject(ctx, claims.Subject); lookupErr == nil && existing != nil {
			return existing, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// deriveHandle builds a stable fallback handle from the provider subject.
func deriveHandle(subject string) string {
	h := strings.ToLower(subject)
	h = strings.NewReplacer("|", "_", "@", "_", ".", "_", " ", "_").Replace(h)
	if len(h) > 30 {
		h = h[:30]
	}
	return h
}

// GetProfile returns the user with follower counts. Profiles are cached;
// profile updates and follow changes invalidate the entry.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		loaded, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfileByHandle returns the user with the given handle.
func (s *UserService) GetProfileByHandle(ctx context.Context, handle string) (*models.User, error) {
	user, err := s.userRepo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", handle)
	}
	return user, nil
}

const (
	maxNameLen   = 100
	maxBioLen    = 500
	maxHandleLen = 30
)

// UpdateProfile applies the provided fields to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if len(*in.Name) > maxNameLen {
			return nil, models.NewValidationError(fmt.Sprintf("Name too long (max %d characters)", maxNameLen))
		}
		user.Name = *in.Name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError(fmt.Sprintf("Bio too long (max %d characters)", maxBioLen))
		}
		user.Bio = *in.Bio
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Handle != nil {
		handle := strings.TrimSpace(*in.Handle)
		if handle == "" {
			return nil, models.NewValidationError("Handle cannot be empty")
		}
		if len(handle) > maxHandleLen {
			return nil, models.NewValidationError(fmt.Sprintf("Handle too long (max %d characters)", maxHandleLen))
		}
		user.Handle = handle
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns users, optionally filtered by a search query.
func (s *UserService) ListUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if query != "" {
		return s.userRepo.Search(ctx, query, limit, offset)
	}
	return s.userRepo.List(ctx, limit, offset)
}

// ToggleFollow follows the target if not already followed, otherwise
// unfollows. Returns true when the caller is following after the call.
// A new follow notifies the target once; re-follows after an unfollow
// notify again, matching the follow edge lifecycle.
func (s *UserService) ToggleFollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == followeeID {
		return false, models.NewValidationError("Cannot follow yourself")
	}

	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		return false, err
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return false, err
	}

	following, err := s.userRepo.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}

	if following {
		if _, err := s.userRepo.Unfollow(ctx, followerID, followeeID); err != nil {
			return false, err
		}
		return false, nil
	}

	created, err := s.userRepo.Follow(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}
	if created && s.notification != nil {
		if err := s.notification.NotifyFollow(ctx, followeeID, follower); err != nil {
			return true, err
		}
	}
	return true, nil
}

// GetFollowers returns users following the given user.
func (s *UserService) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.userRepo.GetFollowers(ctx, userID)
}

// GetFollowing returns users the given user follows.
func (s *UserService) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.userRepo.GetFollowing(ctx, userID)
}

// IsFollowing reports whether follower follows followee.
func (s *UserService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.userRepo.IsFollowing(ctx, followerID, followeeID)
}

package service

import (
	"context"
	"fmt"

	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/repository"
)

// NotificationPusher delivers a notification to the user's realtime channel.
// Implementations must not block.
type NotificationPusher interface {
	PushNotification(userID uint, n *models.Notification)
}

// NotificationService provides notification business logic.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	pusher    NotificationPusher
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(notifRepo repository.NotificationRepository, pusher NotificationPusher) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		pusher:    pusher,
	}
}

// Notify persists a notification and pushes it to the recipient's realtime
// channel. Events a user triggers on their own content are suppressed.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.FromUserID != 0 && n.FromUserID == n.UserID {
		return nil
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return err
	}
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	if s.pusher != nil {
		s.pusher.PushNotification(n.UserID, n)
	}
	return nil
}

// NotifyFollow records a "New Follower" notification.
func (s *NotificationService) NotifyFollow(ctx context.Context, followeeID uint, follower *models.User) error {
	return s.Notify(ctx, &models.Notification{
		UserID:     followeeID,
		Type:       models.NotificationTypeFollow,
		Title:      "New Follower",
		Message:    fmt.Sprintf("%s started following you", follower.Handle),
		FromUserID: follower.ID,
	})
}

// NotifyLike records a like notification for the post author.
func (s *NotificationService) NotifyLike(ctx context.Context, authorID uint, liker *models.User) error {
	return s.Notify(ctx, &models.Notification{
		UserID:     authorID,
		Type:       models.NotificationTypeLike,
		Title:      "New Like",
		Message:    fmt.Sprintf("%s liked your post", liker.Handle),
		FromUserID: liker.ID,
	})
}

// NotifyComment records a comment notification for the post author.
func (s *NotificationService) NotifyComment(ctx context.Context, authorID uint, commenter *models.User) error {
	return s.Notify(ctx, &models.Notification{
		UserID:     authorID,
		Type:       models.NotificationTypeComment,
		Title:      "New Comment",
		Message:    fmt.Sprintf("%s commented on your post", commenter.Handle),
		FromUserID: commenter.ID,
	})
}

// GetNotifications returns the user's notifications, newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notifRepo.ListForUser(ctx, userID, limit, offset)
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifRepo.UnreadCount(ctx, userID)
}

// MarkAllRead marks every notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

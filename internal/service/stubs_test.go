package service

import (
	"context"
	"testing"
	"time"

	"ripple/internal/database"
	"ripple/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServiceDB opens an in-memory database with the full schema for
// full-flow tests.
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, handle string) *models.User {
	t.Helper()
	user := &models.User{
		SubjectID: "idp|" + handle,
		Handle:    handle,
		Name:      handle,
		Email:     handle + "@example.com",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", handle, err)
	}
	return user
}

type userRepoStub struct {
	getBySubjectFn    func(context.Context, string) (*models.User, error)
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByHandleFn     func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updateFn          func(context.Context, *models.User) error
	listFn            func(context.Context, int, int) ([]models.User, error)
	searchFn          func(context.Context, string, int, int) ([]models.User, error)
	followFn          func(context.Context, uint, uint) (bool, error)
	unfollowFn        func(context.Context, uint, uint) (bool, error)
	isFollowingFn     func(context.Context, uint, uint) (bool, error)
	getFollowingIDsFn func(context.Context, uint) ([]uint, error)
	getFollowersFn    func(context.Context, uint) ([]models.User, error)
	getFollowingFn    func(context.Context, uint) ([]models.User, error)
}

func (s *userRepoStub) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	return s.getBySubjectFn(ctx, subject)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.getByHandleFn(ctx, handle)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *userRepoStub) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.followFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.unfollowFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.getFollowingIDsFn(ctx, userID)
}
func (s *userRepoStub) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFollowersFn(ctx, userID)
}
func (s *userRepoStub) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFollowingFn(ctx, userID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getBySubjectFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByHandleFn:  func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:       func(context.Context, *models.User) error { return nil },
		updateFn:       func(context.Context, *models.User) error { return nil },
		listFn:         func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		searchFn:       func(context.Context, string, int, int) ([]models.User, error) { return nil, nil },
		followFn:       func(context.Context, uint, uint) (bool, error) { return true, nil },
		unfollowFn:     func(context.Context, uint, uint) (bool, error) { return true, nil },
		isFollowingFn:  func(context.Context, uint, uint) (bool, error) { return false, nil },
		getFollowingIDsFn: func(context.Context, uint) ([]uint, error) {
			return nil, nil
		},
		getFollowersFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
		getFollowingFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
	}
}

type chatRepoStub struct {
	findConversationBetweenFn func(context.Context, uint, uint) (*models.Conversation, error)
	createConversationFn      func(context.Context, *models.Conversation) error
	getConversationFn         func(context.Context, uint) (*models.Conversation, error)
	getUserConversationsFn    func(context.Context, uint) ([]*models.Conversation, error)
	addParticipantFn          func(context.Context, uint, uint) error
	createMessageFn           func(context.Context, *models.Message) error
	getMessagesFn             func(context.Context, uint, int, int) ([]*models.Message, error)
	markMessagesReadFn        func(context.Context, uint, uint) error
	touchLastMessageFn        func(context.Context, uint, time.Time) error
}

func (s *chatRepoStub) FindConversationBetween(ctx context.Context, userID, otherID uint) (*models.Conversation, error) {
	return s.findConversationBetweenFn(ctx, userID, otherID)
}
func (s *chatRepoStub) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return s.createConversationFn(ctx, conv)
}
func (s *chatRepoStub) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	return s.getConversationFn(ctx, id)
}
func (s *chatRepoStub) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.getUserConversationsFn(ctx, userID)
}
func (s *chatRepoStub) AddParticipant(ctx context.Context, convID, userID uint) error {
	return s.addParticipantFn(ctx, convID, userID)
}
func (s *chatRepoStub) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.createMessageFn(ctx, msg)
}
func (s *chatRepoStub) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	return s.getMessagesFn(ctx, convID, limit, offset)
}
func (s *chatRepoStub) MarkMessagesRead(ctx context.Context, convID, readerID uint) error {
	return s.markMessagesReadFn(ctx, convID, readerID)
}
func (s *chatRepoStub) TouchLastMessage(ctx context.Context, convID uint, at time.Time) error {
	return s.touchLastMessageFn(ctx, convID, at)
}

func noopChatRepo() *chatRepoStub {
	return &chatRepoStub{
		findConversationBetweenFn: func(context.Context, uint, uint) (*models.Conversation, error) { return nil, nil },
		createConversationFn:      func(context.Context, *models.Conversation) error { return nil },
		getConversationFn: func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id}, nil
		},
		getUserConversationsFn: func(context.Context, uint) ([]*models.Conversation, error) { return nil, nil },
		addParticipantFn:       func(context.Context, uint, uint) error { return nil },
		createMessageFn:        func(context.Context, *models.Message) error { return nil },
		getMessagesFn:          func(context.Context, uint, int, int) ([]*models.Message, error) { return nil, nil },
		markMessagesReadFn:     func(context.Context, uint, uint) error { return nil },
		touchLastMessageFn:     func(context.Context, uint, time.Time) error { return nil },
	}
}

type notificationRepoStub struct {
	created []*models.Notification
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	s.created = append(s.created, n)
	return nil
}
func (s *notificationRepoStub) ListForUser(context.Context, uint, int, int) ([]*models.Notification, error) {
	return s.created, nil
}
func (s *notificationRepoStub) UnreadCount(context.Context, uint) (int64, error) {
	return int64(len(s.created)), nil
}
func (s *notificationRepoStub) MarkAllRead(context.Context, uint) error {
	for _, n := range s.created {
		n.Read = true
	}
	return nil
}

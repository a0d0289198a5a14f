// Package service provides application business logic (posts, users, chat, etc.).
package service

import (
	"context"
	"strings"
	"time"

	"ripple/internal/cache"
	"ripple/internal/models"
	"ripple/internal/repository"
)

const maxMessageLen = 10000

// ChatService provides conversation and message business logic.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

// SendMessageInput is the input for appending a message to a conversation.
type SendMessageInput struct {
	UserID         uint
	ConversationID uint
	Text           string
}

// NewChatService returns a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

// FindOrCreateConversation returns the conversation between the caller and
// the other user, creating it if none exists. There is at most one
// conversation per user pair regardless of who initiated it.
func (s *ChatService) FindOrCreateConversation(ctx context.Context, userID, otherID uint) (*models.Conversation, error) {
	if userID == otherID {
		return nil, models.NewValidationError("Cannot start a conversation with yourself")
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}

	existing, err := s.chatRepo.FindConversationBetween(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.chatRepo.GetConversation(ctx, existing.ID)
	}

	self, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	conv := &models.Conversation{
		LastMessageAt: time.Now(),
		Participants:  []models.User{*self, *other},
	}
	if err := s.chatRepo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, conv.ID)
}

// GetConversations returns the caller's conversations, most recently
// active first. The list is cached per user; new conversations and new
// messages invalidate it.
func (s *ChatService) GetConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	err := cache.Aside(ctx, cache.ConversationsKey(userID), &conversations, cache.ConversationsTTL, func() error {
		loaded, err := s.chatRepo.GetUserConversations(ctx, userID)
		if err != nil {
			return err
		}
		conversations = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetConversationForUser returns the conversation if the user is a participant.
func (s *ChatService) GetConversationForUser(ctx context.Context, convID, userID uint) (*models.Conversation, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}
	return conv, nil
}

// SendMessage appends a message to the conversation. An empty message is
// rejected before any state changes, so it never advances the
// conversation's last activity.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, *models.Conversation, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, nil, models.NewValidationError("Message text is required")
	}
	if len(text) > maxMessageLen {
		return nil, nil, models.NewValidationError("Message too long (max 10000 characters)")
	}

	conv, err := s.chatRepo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if !conv.HasParticipant(in.UserID) {
		return nil, nil, models.NewForbiddenError("You are not a participant in this conversation")
	}

	message := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.UserID,
		Text:           text,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, nil, err
	}

	// Last-write-wins; concurrent sends race harmlessly
	if err := s.chatRepo.TouchLastMessage(ctx, conv.ID, message.CreatedAt); err != nil {
		return nil, nil, err
	}
	conv.LastMessageAt = message.CreatedAt

	for _, p := range conv.Participants {
		cache.InvalidateConversations(ctx, p.ID)
	}

	return message, conv, nil
}

// GetMessagesForUser returns messages for a conversation in chronological
// order (participant check applied).
func (s *ChatService) GetMessagesForUser(ctx context.Context, convID, userID uint, limit, offset int) ([]*models.Message, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.chatRepo.GetMessages(ctx, convID, limit, offset)
}

// MarkConversationRead marks all messages from the other participant as read.
func (s *ChatService) MarkConversationRead(ctx context.Context, convID, userID uint) error {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return models.NewForbiddenError("You are not a participant in this conversation")
	}
	return s.chatRepo.MarkMessagesRead(ctx, convID, userID)
}

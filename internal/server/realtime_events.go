package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"ripple/internal/models"
	"ripple/internal/notifications"
)

// Event type constants prevent typos in event names.
const (
	EventMessageReceived = "message_received"
)

// PushNotification delivers a stored notification to the recipient's open
// connections on this instance and publishes it for the others. Satisfies
// service.NotificationPusher.
func (s *Server) PushNotification(userID uint, n *models.Notification) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":         "notification",
		"notification": n,
	})
	if err != nil {
		slog.Error("failed to marshal notification event", "user_id", userID, "error", err)
		return
	}
	// With Redis wired, local delivery happens through the subscriber, so a
	// connection sees each event once.
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, string(payload)); err != nil {
			slog.Error("failed to publish notification", "user_id", userID, "error", err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, payload)
	}
}

// publishUserEvent fans a typed event out to one user's connections, local
// and cross-instance. Delivery is best-effort.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event", "event_type", eventType, "error", err)
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, string(eventJSON)); err != nil {
			slog.Error("failed to publish event", "event_type", eventType, "user_id", userID, "error", err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, eventJSON)
	}
}

// fanOutChatEvent delivers an event to a conversation room. With Redis
// wired it goes through pub/sub so every instance's room sees it; delivery
// is best-effort either way.
func (s *Server) fanOutChatEvent(ctx context.Context, conversationID uint, event notifications.ChatEvent) {
	if s.notifier != nil {
		if eventJSON, err := json.Marshal(event); err == nil {
			if perr := s.notifier.PublishChatEvent(ctx, conversationID, string(eventJSON)); perr != nil {
				slog.Error("failed to publish chat event", "conversation_id", conversationID, "error", perr)
			}
		}
		return
	}
	if s.chatHub != nil {
		s.chatHub.BroadcastToConversation(conversationID, event)
	}
}

// fanOutMessage pushes a freshly persisted message to the conversation room.
// The sender's counterpart also gets a bell event. Called only after the
// message is durable; failures here are silent.
func (s *Server) fanOutMessage(ctx context.Context, conv *models.Conversation, message *models.Message) {
	s.fanOutChatEvent(ctx, conv.ID, notifications.ChatEvent{
		Type:           "message",
		ConversationID: conv.ID,
		UserID:         message.SenderID,
		Payload:        message,
	})

	var preview models.UserSummary
	if message.Sender != nil {
		preview = message.Sender.Summary()
	}
	for _, p := range conv.Participants {
		if p.ID == message.SenderID {
			continue
		}
		s.publishUserEvent(p.ID, EventMessageReceived, map[string]interface{}{
			"conversation_id": conv.ID,
			"message_id":      message.ID,
			"from_user":       preview,
			"preview":         message.Text,
			"created_at":      message.CreatedAt,
		})
	}
}

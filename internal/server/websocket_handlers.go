package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ripple/internal/middleware"
	"ripple/internal/notifications"
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketHandler handles GET /api/ws: the notification bell channel.
// Events pushed here are user-keyed, never room-keyed.
func (s *Server) WebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)
		s.consumeWSTicket(context.Background(), conn.Locals("wsTicket"))

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			slog.Warn("notification socket rejected", "user_id", userID, "error", err)
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketChatHandler handles GET /api/ws/chat: conversation rooms.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)
		s.consumeWSTicket(ctx, conn.Locals("wsTicket"))

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			slog.Warn("chat socket rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, raw []byte) {
			var incoming map[string]interface{}
			if err := json.Unmarshal(raw, &incoming); err != nil {
				slog.Debug("invalid chat frame", "user_id", userID)
				return
			}

			msgType, ok := incoming["type"].(string)
			if !ok {
				return
			}
			convIDFloat, ok := incoming["conversation_id"].(float64)
			if !ok {
				return
			}
			convID := uint(convIDFloat)

			switch msgType {
			case "join":
				// Only participants may enter a room
				if !s.isParticipant(ctx, userID, convID) {
					return
				}
				s.chatHub.JoinConversation(userID, convID)

				response := notifications.ChatEvent{
					Type:           "joined",
					ConversationID: convID,
					Payload:        map[string]interface{}{"conversation_id": convID},
				}
				if responseJSON, merr := json.Marshal(response); merr == nil {
					c.TrySend(responseJSON)
				}

			case "leave":
				s.chatHub.LeaveConversation(userID, convID)

			case "typing":
				if !s.isParticipant(ctx, userID, convID) {
					return
				}
				// Typing indicators are spammy; drop excess silently
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
				if !allowed {
					return
				}
				isTyping, _ := incoming["is_typing"].(bool)
				s.fanOutChatEvent(ctx, convID, notifications.ChatEvent{
					Type:           "typing",
					ConversationID: convID,
					UserID:         userID,
					Payload:        map[string]interface{}{"is_typing": isTyping},
				})

			case "message":
				text, _ := incoming["text"].(string)

				// Same limit as the HTTP send path
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, 15, time.Minute)
				if !allowed {
					response := notifications.ChatEvent{
						Type:    "error",
						Payload: map[string]string{"message": "Rate limit exceeded. Please wait a moment."},
					}
					if respJSON, merr := json.Marshal(response); merr == nil {
						c.TrySend(respJSON)
					}
					return
				}

				message, conv, serr := s.chatService.SendMessage(ctx, service.SendMessageInput{
					UserID:         userID,
					ConversationID: convID,
					Text:           text,
				})
				if serr != nil {
					slog.Debug("socket message rejected", "user_id", userID, "conversation_id", convID, "error", serr)
					return
				}
				s.fanOutMessage(ctx, conv, message)

			case "read":
				if merr := s.chatService.MarkConversationRead(ctx, convID, userID); merr != nil {
					slog.Debug("mark read failed", "user_id", userID, "conversation_id", convID, "error", merr)
				}
			}
		}

		go client.WritePump()

		// Read pump runs in the handler goroutine; returning closes the socket
		client.ReadPump()
	})
}

// isParticipant checks whether the user belongs to the conversation.
func (s *Server) isParticipant(ctx context.Context, userID, conversationID uint) bool {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return false
	}
	return conv.HasParticipant(userID)
}

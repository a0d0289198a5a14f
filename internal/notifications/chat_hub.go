package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"ripple/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub fans chat events out to conversation rooms. Unlike Hub, which is
// user-centric, ChatHub is conversation-centric: a user joins a room and
// receives everything broadcast into it, on every device they have
// connected.
type ChatHub struct {
	mu sync.RWMutex

	// conversationID -> set of member userIDs
	rooms map[uint]map[uint]struct{}

	// userID -> set of rooms the user has joined
	userRooms map[uint]map[uint]struct{}

	// userID -> set of active clients (one per device)
	userConns map[uint]map[*Client]struct{}

	metrics *observability.WebSocketRoomMetrics
	wsLog   *observability.WSLogger
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// ChatEvent is the wire shape for everything the chat hub sends or receives.
type ChatEvent struct {
	// "join", "leave", "message", "typing", "joined", "connected",
	// "user_status", "messages_dropped"
	Type           string      `json:"type"`
	ConversationID uint        `json:"conversation_id,omitempty"`
	UserID         uint        `json:"user_id,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
}

// NewChatHub creates a new ChatHub instance.
func NewChatHub() *ChatHub {
	return &ChatHub{
		rooms:     make(map[uint]map[uint]struct{}),
		userRooms: make(map[uint]map[uint]struct{}),
		userConns: make(map[uint]map[*Client]struct{}),
		metrics:   observability.NewWebSocketRoomMetrics(),
		wsLog:     observability.NewWSLogger("chat hub"),
	}
}

// Register adds a connection for the user and returns its client. Each user
// may hold several connections at once, one per device.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]struct{})
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = struct{}{}
	h.mu.Unlock()

	h.metrics.RecordWebSocketEvent("chat_connect")
	h.wsLog.LogConnect(context.Background(), userID, "")

	client.TrySend(mustMarshal(ChatEvent{Type: "connected", UserID: userID}))
	h.broadcastUserStatus(userID, "online")
	return client, nil
}

// RegisterClient adds an already-built client. Used by tests; Register is
// the production path.
func (h *ChatHub) RegisterClient(client *Client) {
	h.mu.Lock()
	if h.userConns[client.UserID] == nil {
		h.userConns[client.UserID] = make(map[*Client]struct{})
	}
	h.userConns[client.UserID][client] = struct{}{}
	h.mu.Unlock()
	h.broadcastUserStatus(client.UserID, "online")
}

// UnregisterClient removes one connection. When it was the user's last
// connection their room memberships are cleaned up and an offline status is
// broadcast.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := clients[client]; !exists {
		h.mu.Unlock()
		return
	}
	delete(clients, client)

	if len(clients) > 0 {
		h.mu.Unlock()
		h.wsLog.LogDisconnect(context.Background(), client.UserID, "", "device closed")
		return
	}
	delete(h.userConns, client.UserID)

	// Last connection gone: leave every room.
	for roomID := range h.userRooms[client.UserID] {
		h.removeFromRoomLocked(client.UserID, roomID)
	}
	delete(h.userRooms, client.UserID)

	h.mu.Unlock()

	h.metrics.RecordWebSocketEvent("chat_disconnect")
	h.wsLog.LogDisconnect(context.Background(), client.UserID, "", "all devices closed")
	h.broadcastUserStatus(client.UserID, "offline")
}

// JoinConversation subscribes the user to a conversation room. Joining a
// room twice is a no-op.
func (h *ChatHub) JoinConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, connected := h.userConns[userID]; !connected {
		return
	}

	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[uint]struct{})
	}
	if _, already := h.rooms[conversationID][userID]; already {
		return
	}
	h.rooms[conversationID][userID] = struct{}{}

	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[uint]struct{})
	}
	h.userRooms[userID][conversationID] = struct{}{}

	h.metrics.IncrementRoom(roomLabel(conversationID))
}

// LeaveConversation unsubscribes the user from a conversation room.
func (h *ChatHub) LeaveConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(userID, conversationID)
	if rooms, ok := h.userRooms[userID]; ok {
		delete(rooms, conversationID)
	}
}

func (h *ChatHub) removeFromRoomLocked(userID, conversationID uint) {
	members, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	if _, present := members[userID]; !present {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(h.rooms, conversationID)
	}
	h.metrics.DecrementRoom(roomLabel(conversationID))
}

// BroadcastToConversation sends the event to every device of every room
// member. Delivery is best-effort: slow consumers drop messages rather
// than block the room.
func (h *ChatHub) BroadcastToConversation(conversationID uint, event ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[conversationID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("chat event marshal failed", "conversation_id", conversationID, "error", err)
		return
	}

	for userID := range members {
		for client := range h.userConns[userID] {
			client.TrySend(data)
		}
	}

	h.metrics.RecordMessage(roomLabel(conversationID), event.Type)
}

// RoomMembers returns the userIDs currently joined to a conversation room.
func (h *ChatHub) RoomMembers(conversationID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[conversationID]
	result := make([]uint, 0, len(members))
	for userID := range members {
		result = append(result, userID)
	}
	return result
}

// InRoom reports whether the user has joined the conversation room.
func (h *ChatHub) InRoom(userID, conversationID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms, ok := h.userRooms[userID]
	if !ok {
		return false
	}
	_, in := rooms[conversationID]
	return in
}

// IsUserOnline reports whether the user has at least one open connection.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

// broadcastUserStatus tells everybody else that a user went online or
// offline.
func (h *ChatHub) broadcastUserStatus(userID uint, status string) {
	data := mustMarshal(ChatEvent{
		Type:    "user_status",
		UserID:  userID,
		Payload: map[string]interface{}{"status": status, "user_id": userID},
	})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, clients := range h.userConns {
		if id == userID {
			continue
		}
		for client := range clients {
			client.TrySend(data)
		}
	}
}

// StartWiring subscribes the hub to conversation channels so messages
// published on other instances reach local room members.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		var conversationID uint
		if _, err := fmt.Sscanf(channel, "chat:conv:%d", &conversationID); err != nil {
			slog.Warn("unexpected chat channel", "channel", channel)
			return
		}

		var event ChatEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			slog.Warn("bad chat payload", "channel", channel, "error", err)
			return
		}
		if event.Type == "" {
			event.Type = "message"
		}
		event.ConversationID = conversationID

		h.BroadcastToConversation(conversationID, event)
	})
}

// Shutdown closes every connection and clears hub state.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")); err != nil {
				slog.Warn("shutdown close message failed", "user_id", userID, "error", err)
			}
			_ = client.Conn.Close()
		}
	}

	h.rooms = make(map[uint]map[uint]struct{})
	h.userRooms = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]struct{})
	return nil
}

func roomLabel(conversationID uint) string {
	return strconv.FormatUint(uint64(conversationID), 10)
}

func mustMarshal(event ChatEvent) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		// ChatEvent only holds JSON-safe fields
		return []byte(`{}`)
	}
	return data
}

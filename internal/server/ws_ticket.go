package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// wsTicketTTL bounds how long an issued ticket can sit unredeemed in Redis.
const wsTicketTTL = 30 * time.Second

// consumedTicketGrace is how long a redeemed ticket stays valid in-process.
// The WebSocket upgrade can evaluate the auth middleware more than once,
// and only the first pass can win the atomic GETDEL.
const consumedTicketGrace = 2 * wsTicketTTL

type consumedTicketEntry struct {
	userID    uint
	consumeAt time.Time
}

func wsTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// IssueWSTicket handles POST /api/ws/ticket. The ticket is a random token
// bound to the caller's user ID, redeemable exactly once within its TTL.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errors.New("ticket store unavailable")))
	}

	ticket := uuid.NewString()
	err := s.redis.Set(c.Context(), wsTicketKey(ticket),
		strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// redeemWSTicket resolves a ticket to its user ID. The Redis entry is
// consumed atomically via GETDEL; the result is cached in-process so later
// passes of the same handshake still authenticate.
func (s *Server) redeemWSTicket(ctx context.Context, ticket string) (uint, bool) {
	s.consumedTicketsMu.Lock()
	if entry, ok := s.consumedTickets[ticket]; ok {
		s.consumedTicketsMu.Unlock()
		return entry.userID, true
	}
	s.consumedTicketsMu.Unlock()

	if s.redis == nil {
		return 0, false
	}

	userIDStr, err := s.redis.GetDel(ctx, wsTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return 0, false
	}

	now := time.Now()
	s.consumedTicketsMu.Lock()
	for t, entry := range s.consumedTickets {
		if now.Sub(entry.consumeAt) > consumedTicketGrace {
			delete(s.consumedTickets, t)
		}
	}
	s.consumedTickets[ticket] = consumedTicketEntry{userID: uint(userID), consumeAt: now}
	s.consumedTicketsMu.Unlock()

	return uint(userID), true
}

// consumeWSTicket drops a redeemed ticket from the in-process cache once the
// WebSocket connection it authenticated has been established.
func (s *Server) consumeWSTicket(_ context.Context, ticket interface{}) {
	str, _ := ticket.(string)
	if str == "" {
		return
	}
	s.consumedTicketsMu.Lock()
	delete(s.consumedTickets, str)
	s.consumedTicketsMu.Unlock()
}

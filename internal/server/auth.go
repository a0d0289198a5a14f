package server

import (
	"context"
	"strings"

	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired returns the authentication middleware. Requests carry either
// an identity provider bearer token or a single-use WebSocket ticket; on
// first sight of a subject the local profile is created.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" {
			if userID, ok := s.redeemWSTicket(c.Context(), ticket); ok {
				c.Locals("userID", userID)
				c.Locals("wsTicket", ticket)
				ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
				c.SetUserContext(ctx)
				return c.Next()
			}
			// A ticket was provided but is invalid or expired; on a WS path
			// there is no fallback.
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to the identity provider token
		tokenString := middleware.BearerToken(c.Get("Authorization"))

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.VerifyIdentityToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		// Resolve the provider subject to the local profile, creating it on
		// first sight.
		user, err := s.userService.EnsureUser(c.UserContext(), claims)
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}

		c.Locals("userID", user.ID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID resolves the caller's identity on public routes so reads
// can be personalized, but never enforces it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := middleware.BearerToken(c.Get("Authorization"))
	if tokenString == "" {
		return 0, false
	}

	claims, err := middleware.VerifyIdentityToken(tokenString)
	if err != nil {
		return 0, false
	}

	user, err := s.userService.EnsureUser(c.UserContext(), claims)
	if err != nil {
		return 0, false
	}
	return user.ID, true
}

package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns the evaluated feature flags for the current user.
// Percentage rollouts hash the user ID so a user's snapshot is stable.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	return c.JSON(fiber.Map{
		"flags": s.flags.Snapshot(userID),
	})
}

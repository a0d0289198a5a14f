package server

import (
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetStories handles GET /api/stories (public). Only stories younger than
// 24 hours are returned, newest first.
func (s *Server) GetStories(c *fiber.Ctx) error {
	ctx := c.UserContext()

	stories, err := s.storyService.GetActiveStories(ctx)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(stories)
}

// CreateStory handles POST /api/stories
func (s *Server) CreateStory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Image string `json:"image"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	story, err := s.storyService.CreateStory(ctx, userID, req.Image)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(story)
}

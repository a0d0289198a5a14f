package server

import (
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20 // 10 MiB

var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadResponse is the API response after storing an uploaded file.
type UploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload handles POST /api/upload. Accepts a multipart "file" field or a
// JSON body with base64 data; the file lands in the local media dir under a
// random name. Serving and CDN distribution are outside this process.
func (s *Server) Upload(c *fiber.Ctx) error {
	var content []byte
	var filename string

	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxUploadBytes {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("File too large (max 10 MiB)"))
		}
		src, err := file.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		defer func() { _ = src.Close() }()

		content, err = io.ReadAll(src)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		filename = file.Filename
	} else {
		var req struct {
			Data     string `json:"data"`
			Filename string `json:"filename"`
		}
		if parseErr := c.BodyParser(&req); parseErr != nil || req.Data == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("No file uploaded"))
		}
		decoded, decodeErr := base64.StdEncoding.DecodeString(req.Data)
		if decodeErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid base64 payload"))
		}
		if len(decoded) > maxUploadBytes {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("File too large (max 10 MiB)"))
		}
		content = decoded
		filename = req.Filename
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExts[ext] {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unsupported file type"))
	}

	id := uuid.NewString()
	stored := id + ext

	if err := os.MkdirAll(s.config.MediaDir, 0o755); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if err := os.WriteFile(filepath.Join(s.config.MediaDir, stored), content, 0o644); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		ID:  id,
		URL: "/media/" + stored,
	})
}

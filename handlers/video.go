package handlers

import (
	"yt-sections/errors"
	"yt-sections/models"
	"yt-sections/services/video"

	"github.com/gofiber/fiber/v2"
)

type submitRequest struct {
	URL string `json:"url"`
}

type VideoHandler struct {
	service video.Service
}

func NewVideoHandler(service video.Service) *VideoHandler {
	return &VideoHandler{service: service}
}

// Submit accepts a video URL and starts the transcription pipeline.
// Returns 202 while processing and 200 once the record is completed.
func (h *VideoHandler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}
	}
	if req.URL == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "URL is required",
		}
	}

	v, err := h.service.Process(c.Context(), req.URL)
	if err != nil {
		return err
	}

	status := fiber.StatusAccepted
	if v.IsCompleted() {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    models.NewVideoResponse(v),
	})
}

func (h *VideoHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "ID is required",
		}
	}

	v, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.NewVideoResponse(v),
	})
}

package handlers

import (
	"yt-sections/errors"
	"yt-sections/services/qa"
	"yt-sections/services/sections"

	"github.com/gofiber/fiber/v2"
)

type SectionHandler struct {
	service sections.Service
}

func NewSectionHandler(service sections.Service) *SectionHandler {
	return &SectionHandler{service: service}
}

// Synthesize partitions a transcribed video into titled sections. The
// result is cached, so repeated calls return the stored sections.
func (h *SectionHandler) Synthesize(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "ID is required",
		}
	}

	result, err := h.service.Synthesize(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"sections": result},
	})
}

type askRequest struct {
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

type QAHandler struct {
	service qa.Service
}

func NewQAHandler(service qa.Service) *QAHandler {
	return &QAHandler{service: service}
}

// Ask answers a question about the section covering the given timestamp.
func (h *QAHandler) Ask(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "ID is required",
		}
	}

	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}
	}
	if req.Question == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Question is required",
		}
	}
	if req.Timestamp == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Timestamp is required",
		}
	}

	answer, err := h.service.Answer(c.Context(), id, req.Question, req.Timestamp)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"response": answer},
	})
}

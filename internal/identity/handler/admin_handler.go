package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/merofly/identity-service/internal/identity/dto"
	"github.com/merofly/identity-service/internal/identity/service"
)

type AdminHandler struct {
	reviewService *service.ReviewService
}

func NewAdminHandler(reviewService *service.ReviewService) *AdminHandler {
	return &AdminHandler{reviewService: reviewService}
}

func (h *AdminHandler) ReviewDocument(c *fiber.Ctx) error {
	var input dto.ReviewDocumentInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	out, err := h.reviewService.ReviewDocument(c.UserContext(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AdminHandler) PendingDocuments(c *fiber.Ctx) error {
	out, err := h.reviewService.PendingDocuments(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": len(out),
		"users": out,
	})
}

package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/merofly/identity-service/internal/errors"
)

// errorResponse maps service failures onto HTTP statuses. Business-rule
// violations surface verbatim; anything unexpected is logged in full
// and answered with a generic message.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case apperrors.IsValidation(err),
		errors.Is(err, apperrors.ErrInvalidOrExpiredCode),
		errors.Is(err, apperrors.ErrEmailNotVerified),
		errors.Is(err, apperrors.ErrDocumentTypeMismatch),
		errors.Is(err, apperrors.ErrNoDocumentToReview),
		errors.Is(err, apperrors.ErrNotificationFailed):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrEmailAlreadyInUse),
		errors.Is(err, apperrors.ErrEmailAlreadyVerified):
		status = fiber.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrTokenInvalid),
		errors.Is(err, apperrors.ErrTokenExpired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrTokenNotFound),
		errors.Is(err, apperrors.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrAccountLocked):
		status = fiber.StatusLocked
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("error: %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

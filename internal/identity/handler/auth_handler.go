package handler

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/merofly/identity-service/internal/identity/domain"
	"github.com/merofly/identity-service/internal/identity/dto"
	"github.com/merofly/identity-service/internal/identity/service"
)

type AuthHandler struct {
	userService *service.UserService
	fileStore   domain.FileStore
}

func NewAuthHandler(userService *service.UserService, fileStore domain.FileStore) *AuthHandler {
	return &AuthHandler{userService: userService, fileStore: fileStore}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	out, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input dto.VerifyEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	out, err := h.userService.VerifyEmail(c.UserContext(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) ResendCode(c *fiber.Ctx) error {
	var input dto.ResendCodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	if err := h.userService.ResendVerificationCode(c.UserContext(), input); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "verification code sent",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	out, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	out, err := h.userService.Refresh(c.UserContext(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	// Missing or malformed body is fine; logout is idempotent.
	_ = c.BodyParser(&input)

	if err := h.userService.Logout(c.UserContext(), input.RefreshToken); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) CompleteProfile(c *fiber.Ctx) error {
	var input dto.CompleteProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	out, err := h.userService.CompleteProfile(c.UserContext(), authenticatedUserID(c), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) VerificationStatus(c *fiber.Ctx) error {
	out, err := h.userService.VerificationStatus(c.UserContext(), authenticatedUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

// UploadDocument stores the identity document and returns the URL the
// complete-profile call consumes.
func (h *AuthHandler) UploadDocument(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "document file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, err)
	}
	defer file.Close()

	key := fmt.Sprintf("documents/%s/%s%s",
		authenticatedUserID(c), uuid.NewString(), filepath.Ext(fileHeader.Filename))

	url, err := h.fileStore.Upload(c.UserContext(), key, file, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"document_url": url,
	})
}

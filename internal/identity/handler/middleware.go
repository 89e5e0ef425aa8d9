package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/merofly/identity-service/internal/identity/service"
)

const (
	localUserID = "userID"
	localRole   = "role"
)

// RequireAuth validates the bearer access token and stashes its claims.
// Token claims are trusted here only for coarse routing; anything
// privileged re-reads live state.
func (h *AuthHandler) RequireAuth(tokens service.TokenGenerator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseBearer(c, tokens)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing access token",
			})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, claims.Role)

		return c.Next()
	}
}

// RequireRole gates admin routes. The role is re-checked against the
// stored user record, not the token snapshot, so a demoted admin loses
// access as soon as the record changes.
func (h *AuthHandler) RequireRole(tokens service.TokenGenerator, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseBearer(c, tokens)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing access token",
			})
		}

		status, err := h.userService.VerificationStatus(c.UserContext(), claims.UserID)
		if err != nil || status.User.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, status.User.Role)

		return c.Next()
	}
}

func parseBearer(c *fiber.Ctx, tokens service.TokenGenerator) (*service.AccessClaims, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil, fiber.ErrUnauthorized
	}

	return tokens.VerifyAccessToken(token)
}

func authenticatedUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

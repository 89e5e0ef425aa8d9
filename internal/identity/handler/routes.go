package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/merofly/identity-service/internal/identity/service"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, a *AdminHandler, tokens service.TokenGenerator) {
	v1 := app.Group("/api/v1")

	v1.Post("/register", h.Register)
	v1.Post("/verify-email", h.VerifyEmail)
	v1.Post("/resend-code", h.ResendCode)
	v1.Post("/login", h.Login)
	v1.Post("/refresh", h.Refresh)
	v1.Delete("/session", h.Logout)

	authed := v1.Group("", h.RequireAuth(tokens))
	authed.Post("/complete-profile", h.CompleteProfile)
	authed.Get("/verification-status", h.VerificationStatus)
	authed.Post("/documents", h.UploadDocument)

	admin := v1.Group("/admin", h.RequireRole(tokens, "admin"))
	admin.Post("/documents/review", a.ReviewDocument)
	admin.Get("/documents/pending", a.PendingDocuments)
}

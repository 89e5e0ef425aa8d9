package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/merofly/identity-service/internal/identity/domain"
	"github.com/merofly/identity-service/internal/identity/handler"
	"github.com/merofly/identity-service/internal/identity/service"
	"github.com/merofly/identity-service/internal/mocks"
)

type stubFileStore struct {
	lastKey string
}

func (s *stubFileStore) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) (string, error) {
	s.lastKey = key
	return "https://files.example.com/" + key, nil
}

type fixture struct {
	app       *fiber.App
	repo      *mocks.MockUserRepository
	mailer    *mocks.MockMailer
	tokens    *service.TokenService
	fileStore *stubFileStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockUserRepository(ctrl)
	mailer := mocks.NewMockMailer(ctrl)
	tokens := service.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	fileStore := &stubFileStore{}

	userService := service.NewUserService(repo, tokens, mailer)
	reviewService := service.NewReviewService(repo, mailer)

	app := fiber.New()
	handler.RegisterRoutes(app,
		handler.NewAuthHandler(userService, fileStore),
		handler.NewAdminHandler(reviewService),
		tokens)

	return &fixture{app: app, repo: repo, mailer: mailer, tokens: tokens, fileStore: fileStore}
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func activeUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:              "user-123",
		FullName:        "Test User",
		Email:           "test@example.com",
		PasswordHash:    string(hash),
		Role:            role,
		IsEmailVerified: true,
		IsActive:        true,
	}
}

func bearer(t *testing.T, f *fixture, user *domain.User) string {
	t.Helper()
	token, err := f.tokens.GenerateAccessToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().GetByEmail(gomock.Any(), "new@example.com").Return(nil, nil)
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		f.mailer.EXPECT().SendVerificationCode(gomock.Any(), "new@example.com", "New User", gomock.Any()).Return(nil)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/register", fiber.Map{
			"full_name": "New User",
			"email":     "new@example.com",
			"password":  "Passw0rd!",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "email_verification", body["next_step"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().GetByEmail(gomock.Any(), "taken@example.com").
			Return(&domain.User{ID: "existing"}, nil)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/register", fiber.Map{
			"full_name": "New User",
			"email":     "taken@example.com",
			"password":  "Passw0rd!",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("short password rejected", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/register", fiber.Map{
			"full_name": "New User",
			"email":     "new@example.com",
			"password":  "short",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestVerifyEmailEndpoint(t *testing.T) {
	f := newFixture(t)

	expiry := time.Now().Add(5 * time.Minute)
	user := &domain.User{
		ID:                     "user-123",
		Email:                  "test@example.com",
		VerificationCode:       "123456",
		VerificationCodeExpiry: &expiry,
	}
	f.repo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)

	resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/verify-email", fiber.Map{
		"email":             "test@example.com",
		"verification_code": "999999",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "a wrong code is a client error, not a server one")
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("success returns tokens and redirect", func(t *testing.T) {
		f := newFixture(t)

		user := activeUser(t, domain.RoleSender)
		f.repo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
		f.repo.EXPECT().ResetLoginAttempts(gomock.Any(), user.ID).Return(nil)
		f.repo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/login", fiber.Map{
			"email":    "test@example.com",
			"password": "Passw0rd!",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["refresh_token"])
		assert.Equal(t, "/auth/complete-profile", body["redirect_to"])
	})

	t.Run("wrong password unauthorized", func(t *testing.T) {
		f := newFixture(t)

		user := activeUser(t, domain.RoleSender)
		f.repo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)
		f.repo.EXPECT().RecordFailedLogin(gomock.Any(), user.ID).Return(nil)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/login", fiber.Map{
			"email":    "test@example.com",
			"password": "wrong",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("locked account answers 423", func(t *testing.T) {
		f := newFixture(t)

		lockUntil := time.Now().Add(10 * time.Minute)
		user := activeUser(t, domain.RoleSender)
		user.LoginAttempts = domain.MaxLoginAttempts
		user.LockUntil = &lockUntil
		f.repo.EXPECT().GetByEmail(gomock.Any(), "test@example.com").Return(user, nil)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/login", fiber.Map{
			"email":    "test@example.com",
			"password": "Passw0rd!",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusLocked, resp.StatusCode)
	})
}

func TestRefreshEndpoint_UnknownToken(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetRefreshToken(gomock.Any(), "unknown").Return(nil, nil)

	resp, err := f.app.Test(jsonRequest(t, fiber.MethodPost, "/api/v1/refresh", fiber.Map{
		"refresh_token": "unknown",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	t.Run("revokes presented token", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().DeleteRefreshToken(gomock.Any(), "some-token").Return(nil)

		resp, err := f.app.Test(jsonRequest(t, fiber.MethodDelete, "/api/v1/session", fiber.Map{
			"refresh_token": "some-token",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})

	t.Run("empty body still succeeds", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/session", nil)
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})
}

func TestAuthenticatedRoutes(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/verification-status", nil)
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/verification-status", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-jwt")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		f := newFixture(t)

		user := activeUser(t, domain.RoleSender)
		f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/verification-status", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, f, user))
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "profile_completion", body["current_step"])
	})
}

func TestUploadDocumentEndpoint(t *testing.T) {
	f := newFixture(t)
	user := activeUser(t, domain.RoleSender)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", "passport.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, bearer(t, f, user))

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	url, _ := body["document_url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://files.example.com/documents/user-123/"), "unexpected url %q", url)
	assert.True(t, strings.HasSuffix(f.fileStore.lastKey, ".png"), "extension must be preserved, got %q", f.fileStore.lastKey)
	assert.True(t, strings.HasPrefix(f.fileStore.lastKey, fmt.Sprintf("documents/%s/", user.ID)))
}

func TestAdminRoutes(t *testing.T) {
	t.Run("non-admin forbidden even with valid token", func(t *testing.T) {
		f := newFixture(t)

		sender := activeUser(t, domain.RoleSender)
		f.repo.EXPECT().GetByID(gomock.Any(), sender.ID).Return(sender, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/admin/documents/pending", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, f, sender))
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("demoted admin loses access", func(t *testing.T) {
		f := newFixture(t)

		// Token was minted while the user was an admin; the stored
		// record says otherwise now, and the record wins.
		wasAdmin := activeUser(t, domain.RoleAdmin)
		token := bearer(t, f, wasAdmin)

		demoted := activeUser(t, domain.RoleSender)
		f.repo.EXPECT().GetByID(gomock.Any(), demoted.ID).Return(demoted, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/admin/documents/pending", nil)
		req.Header.Set(fiber.HeaderAuthorization, token)
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin lists pending documents", func(t *testing.T) {
		f := newFixture(t)

		admin := activeUser(t, domain.RoleAdmin)
		f.repo.EXPECT().GetByID(gomock.Any(), admin.ID).Return(admin, nil)

		pending := activeUser(t, domain.RoleSender)
		pending.ID = "user-456"
		pending.AttachDocument(domain.DocumentNationalID, "https://files.example.com/doc.pdf", time.Now())
		f.repo.EXPECT().ListPendingDocuments(gomock.Any()).Return([]*domain.User{pending}, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/admin/documents/pending", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, f, admin))
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["count"])
	})
}

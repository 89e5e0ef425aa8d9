package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/merofly/identity-service/internal/identity/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_mailer.go -package=mocks github.com/merofly/identity-service/internal/identity/domain Mailer

import (
	"context"
	"io"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error

	UpdateVerificationCode(ctx context.Context, id, code string, expiry time.Time) error
	MarkEmailVerified(ctx context.Context, user *User) error
	SaveProfile(ctx context.Context, user *User) error

	RecordFailedLogin(ctx context.Context, id string) error
	ResetLoginAttempts(ctx context.Context, id string) error

	UpdateDocumentReview(ctx context.Context, user *User) error
	ListPendingDocuments(ctx context.Context) ([]*User, error)

	StoreRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// Mailer delivers transactional email. Callers treat failures as
// non-fatal except during registration, where a failed verification
// email rolls the new account back.
type Mailer interface {
	SendVerificationCode(ctx context.Context, toEmail, name, code string) error
	SendDocumentReviewed(ctx context.Context, toEmail, name string, approved bool, reason string) error
}

// FileStore persists uploaded identity documents and returns the URL
// the rest of the system consumes.
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

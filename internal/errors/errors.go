package errors

import (
	"errors"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyInUse    = errors.New("email already in use")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountLocked        = errors.New("account temporarily locked")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenNotFound        = errors.New("refresh token not found")
	ErrDocumentTypeMismatch = errors.New("document type not allowed for role")
	ErrNoDocumentToReview   = errors.New("no pending document to review")
	ErrNotificationFailed   = errors.New("failed to send notification email")
	ErrForbidden            = errors.New("forbidden")
)

// ValidationError marks missing or malformed caller input. It is never
// retried and always maps to a 400 at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

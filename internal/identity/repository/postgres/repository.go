package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/merofly/identity-service/internal/errors"
	"github.com/merofly/identity-service/internal/identity/domain"
)

// DB is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, full_name, email, password_hash, phone_number, country, role,
		is_email_verified, is_profile_complete, is_document_verified, is_fully_verified,
		verification_code, verification_code_expiry,
		document_type, document_url, document_status, document_rejection_reason,
		document_uploaded_at, document_reviewed_at, traveler_info,
		login_attempts, lock_until, is_active, terms_accepted, privacy_accepted,
		created_at, updated_at`

func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, full_name, email, password_hash,
			verification_code, verification_code_expiry, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.FullName, user.Email, user.PasswordHash,
		user.VerificationCode, user.VerificationCodeExpiry, user.IsActive,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

func (r *Repository) UpdateVerificationCode(ctx context.Context, id, code string, expiry time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET verification_code = $2, verification_code_expiry = $3, updated_at = now()
		WHERE id = $1
	`, id, code, expiry)
	if err != nil {
		return fmt.Errorf("failed to update verification code: %w", err)
	}

	return nil
}

func (r *Repository) MarkEmailVerified(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_email_verified = TRUE,
			verification_code = '',
			verification_code_expiry = NULL,
			is_fully_verified = $2,
			updated_at = now()
		WHERE id = $1
	`, user.ID, user.IsFullyVerified)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	return nil
}

func (r *Repository) SaveProfile(ctx context.Context, user *domain.User) error {
	var travelerInfo []byte
	if user.TravelerInfo != nil {
		var err error
		travelerInfo, err = json.Marshal(user.TravelerInfo)
		if err != nil {
			return fmt.Errorf("failed to encode traveler info: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET phone_number = $2,
			country = $3,
			role = $4,
			terms_accepted = $5,
			privacy_accepted = $6,
			traveler_info = $7,
			document_type = $8,
			document_url = $9,
			document_status = $10,
			document_uploaded_at = $11,
			is_profile_complete = $12,
			is_fully_verified = $13,
			updated_at = now()
		WHERE id = $1
	`, user.ID, user.PhoneNumber, user.Country, string(user.Role),
		user.TermsAccepted, user.PrivacyAccepted, travelerInfo,
		string(user.Document.Type), user.Document.URL, string(user.Document.Status),
		user.Document.UploadedAt, user.IsProfileComplete, user.IsFullyVerified)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// RecordFailedLogin applies the lockout rule in a single statement so
// concurrent failures for the same user cannot lose updates.
func (r *Repository) RecordFailedLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1,
			lock_until = CASE
				WHEN login_attempts + 1 >= $2 THEN now() + make_interval(mins => $3)
				ELSE lock_until
			END,
			updated_at = now()
		WHERE id = $1
	`, id, domain.MaxLoginAttempts, int(domain.LockDuration.Minutes()))
	if err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}

	return nil
}

func (r *Repository) ResetLoginAttempts(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return nil
}

// UpdateDocumentReview persists an approve/reject decision. The
// pending-document precondition is part of the statement, so a
// concurrent second review matches zero rows.
func (r *Repository) UpdateDocumentReview(ctx context.Context, user *domain.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET document_status = $2,
			document_rejection_reason = $3,
			document_reviewed_at = $4,
			is_document_verified = $5,
			is_fully_verified = $6,
			updated_at = now()
		WHERE id = $1 AND document_status = 'pending' AND document_url <> ''
	`, user.ID, string(user.Document.Status), user.Document.RejectionReason,
		user.Document.ReviewedAt, user.IsDocumentVerified, user.IsFullyVerified)
	if err != nil {
		return fmt.Errorf("failed to update document review: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrNoDocumentToReview
	}

	return nil
}

func (r *Repository) ListPendingDocuments(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE document_status = 'pending' AND document_url <> ''
		ORDER BY document_uploaded_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending documents: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending document row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending documents: %w", err)
	}

	return users, nil
}

func (r *Repository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`, token)

	var rt domain.RefreshToken
	err := row.Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &rt, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u            domain.User
		role         string
		docType      string
		docURL       string
		docStatus    string
		docReason    string
		docUploaded  *time.Time
		docReviewed  *time.Time
		travelerInfo []byte
	)

	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.PhoneNumber, &u.Country, &role,
		&u.IsEmailVerified, &u.IsProfileComplete, &u.IsDocumentVerified, &u.IsFullyVerified,
		&u.VerificationCode, &u.VerificationCodeExpiry,
		&docType, &docURL, &docStatus, &docReason,
		&docUploaded, &docReviewed, &travelerInfo,
		&u.LoginAttempts, &u.LockUntil, &u.IsActive, &u.TermsAccepted, &u.PrivacyAccepted,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)

	if docStatus != "" {
		doc := &domain.Document{
			Type:            domain.DocumentType(docType),
			URL:             docURL,
			Status:          domain.DocumentStatus(docStatus),
			RejectionReason: docReason,
			ReviewedAt:      docReviewed,
		}
		if docUploaded != nil {
			doc.UploadedAt = *docUploaded
		}
		u.Document = doc
	}

	if len(travelerInfo) > 0 {
		var ti domain.TravelerInfo
		if err := json.Unmarshal(travelerInfo, &ti); err != nil {
			return nil, fmt.Errorf("failed to decode traveler info: %w", err)
		}
		u.TravelerInfo = &ti
	}

	return &u, nil
}

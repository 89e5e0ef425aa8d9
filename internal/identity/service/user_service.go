package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/merofly/identity-service/internal/errors"
	"github.com/merofly/identity-service/internal/identity/domain"
	"github.com/merofly/identity-service/internal/identity/dto"
)

const (
	minPasswordLength = 8
	passwordHashCost  = 12
)

type UserService struct {
	repo         domain.UserRepository
	tokenService TokenGenerator
	mailer       domain.Mailer
}

func NewUserService(repo domain.UserRepository, tokenService TokenGenerator, mailer domain.Mailer) *UserService {
	return &UserService{
		repo:         repo,
		tokenService: tokenService,
		mailer:       mailer,
	}
}

// Register creates an unverified account and emails its first
// verification code. The account only survives if that email goes out:
// a failed send rolls the freshly created user back.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.RegisterOutput, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return nil, apperrors.NewValidation("full_name", "is required")
	}

	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidation("email", "must be a valid email address")
	}

	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidation("password", "must be at least 8 characters long")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordHashCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		PasswordHash: string(hashed),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	code, err := user.IssueVerificationCode(now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, user.FullName, code); err != nil {
		log.Printf("warn: verification email to %s failed, rolling back registration: %v", user.Email, err)
		if delErr := s.repo.Delete(ctx, user.ID); delErr != nil {
			log.Printf("warn: failed to roll back user %s: %v", user.ID, delErr)
		}
		return nil, apperrors.ErrNotificationFailed
	}

	return &dto.RegisterOutput{
		UserID:   user.ID,
		Email:    user.Email,
		NextStep: string(domain.StepEmailVerification),
	}, nil
}

// VerifyEmail consumes the outstanding verification code. It does not
// authenticate; the caller is pointed at login afterwards.
func (s *UserService) VerifyEmail(ctx context.Context, input dto.VerifyEmailInput) (*dto.VerifyEmailOutput, error) {
	if input.Code == "" {
		return nil, apperrors.NewValidation("verification_code", "is required")
	}

	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	if user.IsEmailVerified {
		return nil, apperrors.ErrEmailAlreadyVerified
	}

	if !user.VerificationCodeValid(input.Code, time.Now()) {
		return nil, apperrors.ErrInvalidOrExpiredCode
	}

	user.IsEmailVerified = true
	user.ClearVerificationCode()
	user.RecomputeFullVerification()

	if err := s.repo.MarkEmailVerified(ctx, user); err != nil {
		return nil, err
	}

	return &dto.VerifyEmailOutput{
		UserID:      user.ID,
		Email:       user.Email,
		CurrentStep: string(user.CurrentStep()),
		NextStep:    "login",
	}, nil
}

// ResendVerificationCode replaces the outstanding code and emails the
// new one. The old code stops validating the moment the new one is
// stored.
func (s *UserService) ResendVerificationCode(ctx context.Context, input dto.ResendCodeInput) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.ErrUserNotFound
	}

	if user.IsEmailVerified {
		return apperrors.ErrEmailAlreadyVerified
	}

	code, err := user.IssueVerificationCode(time.Now())
	if err != nil {
		return err
	}

	if err := s.repo.UpdateVerificationCode(ctx, user.ID, code, *user.VerificationCodeExpiry); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, user.FullName, code); err != nil {
		log.Printf("warn: failed to resend verification code to %s: %v", user.Email, err)
		return apperrors.ErrNotificationFailed
	}

	return nil
}

// CompleteProfile fills in contact details, role and the identity
// document. The role/document-type pairing is validated before any
// document record is attached.
func (s *UserService) CompleteProfile(ctx context.Context, userID string, input dto.CompleteProfileInput) (*dto.CompleteProfileOutput, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	if !user.IsEmailVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	if strings.TrimSpace(input.PhoneNumber) == "" {
		return nil, apperrors.NewValidation("phone_number", "is required")
	}
	if strings.TrimSpace(input.Country) == "" {
		return nil, apperrors.NewValidation("country", "is required")
	}

	role := domain.Role(input.Role)
	if role != domain.RoleTraveler && role != domain.RoleSender {
		return nil, apperrors.NewValidation("role", "must be traveler or sender")
	}

	if !input.TermsAccepted || !input.PrivacyAccepted {
		return nil, apperrors.NewValidation("terms_and_conditions", "terms and privacy policy must be accepted")
	}

	docType := domain.DocumentType(input.DocumentType)
	if input.DocumentURL == "" || docType == "" {
		return nil, apperrors.NewValidation("document", "document type and url are required")
	}

	if !domain.DocumentTypeAllowed(role, docType) {
		return nil, apperrors.ErrDocumentTypeMismatch
	}

	now := time.Now()
	user.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	user.Country = strings.TrimSpace(input.Country)
	user.Role = role
	user.TermsAccepted = input.TermsAccepted
	user.PrivacyAccepted = input.PrivacyAccepted

	if role == domain.RoleTraveler && input.TravelerInfo != nil {
		user.TravelerInfo = &domain.TravelerInfo{
			DestinationCountry:  input.TravelerInfo.DestinationCountry,
			DepartureTime:       input.TravelerInfo.DepartureTime,
			ArrivalTime:         input.TravelerInfo.ArrivalTime,
			CostPerKg:           input.TravelerInfo.CostPerKg,
			PickUpLocation:      input.TravelerInfo.PickUpLocation,
			Airline:             input.TravelerInfo.Airline,
			StorageAvailable:    input.TravelerInfo.StorageAvailable,
			BookingAvailability: true,
		}
	}

	user.AttachDocument(docType, input.DocumentURL, now)
	user.IsProfileComplete = true
	user.RecomputeFullVerification()

	if err := s.repo.SaveProfile(ctx, user); err != nil {
		return nil, err
	}

	return &dto.CompleteProfileOutput{
		UserID:      user.ID,
		CurrentStep: string(user.CurrentStep()),
		NextStep:    string(domain.StepDocumentVerification),
	}, nil
}

// Login is the sole session-issuance point. Locked accounts fail before
// the password is checked, and a locked failure does not count as an
// additional attempt.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutput, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	if !user.IsEmailVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	now := time.Now()
	if user.Locked(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		user.RegisterFailedLogin(now)
		if err := s.repo.RecordFailedLogin(ctx, user.ID); err != nil {
			log.Printf("warn: failed to record login attempt for user %s: %v", user.ID, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	user.ResetLoginAttempts()
	if err := s.repo.ResetLoginAttempts(ctx, user.ID); err != nil {
		return nil, err
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := s.tokenService.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.StoreRefreshToken(ctx, &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &dto.LoginOutput{
		TokenResponse: dto.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		CurrentStep: string(user.CurrentStep()),
		RedirectTo:  redirectFor(user),
		User:        toUserOutput(user),
	}, nil
}

// Refresh mints a new access token from the current user record, not
// from the refresh token's claims, so role and verification changes
// since issuance are picked up.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, apperrors.ErrTokenNotFound
	}

	if stored.Expired(time.Now()) {
		if err := s.repo.DeleteRefreshToken(ctx, stored.Token); err != nil {
			log.Printf("warn: failed to delete expired refresh token for user %s: %v", stored.UserID, err)
		}
		return nil, apperrors.ErrTokenExpired
	}

	claims, err := s.tokenService.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID != stored.UserID {
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{AccessToken: accessToken}, nil
}

// Logout revokes the presented refresh token. Revoking an absent token
// is not an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

// VerificationStatus returns the full onboarding snapshot for a user.
func (s *UserService) VerificationStatus(ctx context.Context, userID string) (*dto.VerificationStatusOutput, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	out := &dto.VerificationStatusOutput{
		User:        toUserOutput(user),
		PhoneNumber: user.PhoneNumber,
		Country:     user.Country,
		CurrentStep: string(user.CurrentStep()),
	}

	if user.Document != nil {
		out.Document = &dto.DocumentOutput{
			Type:            string(user.Document.Type),
			URL:             user.Document.URL,
			Status:          string(user.Document.Status),
			RejectionReason: user.Document.RejectionReason,
			UploadedAt:      user.Document.UploadedAt,
			ReviewedAt:      user.Document.ReviewedAt,
		}
	}

	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func redirectFor(user *domain.User) string {
	switch user.CurrentStep() {
	case domain.StepProfileCompletion:
		return "/auth/complete-profile"
	case domain.StepDocumentVerification:
		return "/verification-status"
	}

	switch user.Role {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleTraveler:
		return "/traveler"
	case domain.RoleSender:
		return "/sender"
	}

	return "/dashboard"
}

func toUserOutput(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:                 user.ID,
		FullName:           user.FullName,
		Email:              user.Email,
		Role:               string(user.Role),
		IsEmailVerified:    user.IsEmailVerified,
		IsProfileComplete:  user.IsProfileComplete,
		IsDocumentVerified: user.IsDocumentVerified,
		IsFullyVerified:    user.IsFullyVerified,
	}
}

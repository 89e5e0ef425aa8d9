package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/merofly/identity-service/internal/identity/service TokenGenerator

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/merofly/identity-service/internal/identity/domain"
	apperrors "github.com/merofly/identity-service/internal/errors"
)

type TokenGenerator interface {
	GenerateAccessToken(user *domain.User) (string, error)
	GenerateRefreshToken(user *domain.User) (string, time.Time, error)
	VerifyAccessToken(tokenString string) (*AccessClaims, error)
	VerifyRefreshToken(tokenString string) (*RefreshClaims, error)
}

// TokenService signs access and refresh tokens with distinct secrets.
// Access tokens carry a snapshot of the verification step at issuance;
// anything privileged re-reads live state instead of trusting it.
type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type AccessClaims struct {
	jwt.RegisteredClaims
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	CurrentStep     string `json:"current_step"`
	IsFullyVerified bool   `json:"is_fully_verified"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

func NewTokenService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
	}
}

func (ts *TokenService) GenerateAccessToken(user *domain.User) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		UserID:          user.ID,
		Email:           user.Email,
		Role:            string(user.Role),
		CurrentStep:     string(user.CurrentStep()),
		IsFullyVerified: user.IsFullyVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
	if err != nil {
		return "", apperrors.ErrTokenInvalid
	}

	return signed, nil
}

func (ts *TokenService) GenerateRefreshToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.RefreshTokenExpiry)

	claims := RefreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.RefreshTokenSecret))
	if err != nil {
		return "", time.Time{}, apperrors.ErrTokenInvalid
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken parses and validates an access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.verify(tokenString, claims, ts.AccessTokenSecret); err != nil {
		return nil, err
	}

	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token string.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.verify(tokenString, claims, ts.RefreshTokenSecret); err != nil {
		return nil, err
	}

	return claims, nil
}

func (ts *TokenService) verify(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Only HMAC is acceptable; anything else is a forgery attempt.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrTokenInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperrors.ErrTokenExpired
		}
		return apperrors.ErrTokenInvalid
	}

	if !token.Valid {
		return apperrors.ErrTokenInvalid
	}

	return nil
}

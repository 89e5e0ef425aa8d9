package service

import (
	"context"
	"log"
	"time"

	apperrors "github.com/merofly/identity-service/internal/errors"
	"github.com/merofly/identity-service/internal/identity/domain"
	"github.com/merofly/identity-service/internal/identity/dto"
)

const notifyTimeout = 10 * time.Second

// ReviewService handles the admin approve/reject transition on
// submitted identity documents.
type ReviewService struct {
	repo   domain.UserRepository
	mailer domain.Mailer
}

func NewReviewService(repo domain.UserRepository, mailer domain.Mailer) *ReviewService {
	return &ReviewService{repo: repo, mailer: mailer}
}

// ReviewDocument applies an approve or reject decision to a pending
// document. The state change is committed before the outcome email is
// attempted; the email is best-effort and never rolls the decision back.
func (s *ReviewService) ReviewDocument(ctx context.Context, input dto.ReviewDocumentInput) (*dto.ReviewDocumentOutput, error) {
	if input.UserID == "" {
		return nil, apperrors.NewValidation("user_id", "is required")
	}
	if input.Action != "approve" && input.Action != "reject" {
		return nil, apperrors.NewValidation("action", "must be approve or reject")
	}

	user, err := s.repo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	if !user.HasReviewableDocument() {
		return nil, apperrors.ErrNoDocumentToReview
	}

	now := time.Now()
	approved := input.Action == "approve"
	if approved {
		user.ApproveDocument(now)
	} else {
		user.RejectDocument(input.RejectionReason, now)
	}

	if err := s.repo.UpdateDocumentReview(ctx, user); err != nil {
		return nil, err
	}

	s.notifyOutcome(user, approved)

	return &dto.ReviewDocumentOutput{
		UserID:             user.ID,
		DocumentStatus:     string(user.Document.Status),
		IsDocumentVerified: user.IsDocumentVerified,
		IsFullyVerified:    user.IsFullyVerified,
	}, nil
}

// PendingDocuments lists users whose documents are awaiting review.
func (s *ReviewService) PendingDocuments(ctx context.Context) ([]dto.PendingDocumentOutput, error) {
	users, err := s.repo.ListPendingDocuments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PendingDocumentOutput, 0, len(users))
	for _, u := range users {
		out = append(out, dto.PendingDocumentOutput{
			UserID:       u.ID,
			FullName:     u.FullName,
			Email:        u.Email,
			Role:         string(u.Role),
			Country:      u.Country,
			DocumentType: string(u.Document.Type),
			DocumentURL:  u.Document.URL,
			UploadedAt:   u.Document.UploadedAt,
		})
	}

	return out, nil
}

// notifyOutcome emails the review result without blocking the request.
func (s *ReviewService) notifyOutcome(user *domain.User, approved bool) {
	email := user.Email
	name := user.FullName
	reason := user.Document.RejectionReason

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.mailer.SendDocumentReviewed(ctx, email, name, approved, reason); err != nil {
			log.Printf("warn: failed to send review outcome email to %s: %v", email, err)
		}
	}()
}

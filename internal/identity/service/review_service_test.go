package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/merofly/identity-service/internal/errors"
	"github.com/merofly/identity-service/internal/identity/domain"
	"github.com/merofly/identity-service/internal/identity/dto"
	"github.com/merofly/identity-service/internal/identity/service"
	"github.com/merofly/identity-service/internal/mocks"
)

func reviewableUser(t *testing.T) *domain.User {
	t.Helper()
	u := verifiedUser(t)
	u.Role = domain.RoleSender
	u.IsProfileComplete = true
	u.AttachDocument(domain.DocumentNationalID, "https://files.example.com/doc.pdf", time.Now())
	return u
}

func TestReviewService_Approve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)
	s := service.NewReviewService(mockRepo, mockMailer)

	user := reviewableUser(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	mockRepo.EXPECT().UpdateDocumentReview(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			assert.Equal(t, domain.DocumentApproved, u.Document.Status)
			assert.True(t, u.IsDocumentVerified)
			assert.True(t, u.IsFullyVerified, "approval completes onboarding for this user")
			assert.NotNil(t, u.Document.ReviewedAt)
			return nil
		})

	// The outcome email is sent on a background goroutine; the channel
	// keeps the assertion inside the test's lifetime.
	notified := make(chan struct{})
	mockMailer.EXPECT().SendDocumentReviewed(gomock.Any(), user.Email, user.FullName, true, "").
		DoAndReturn(func(context.Context, string, string, bool, string) error {
			close(notified)
			return nil
		})

	out, err := s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{
		UserID: user.ID,
		Action: "approve",
	})

	require.NoError(t, err)
	assert.Equal(t, "approved", out.DocumentStatus)
	assert.True(t, out.IsFullyVerified)
	assert.Equal(t, domain.StepComplete, user.CurrentStep())

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("review outcome email was never sent")
	}
}

func TestReviewService_Reject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)
	s := service.NewReviewService(mockRepo, mockMailer)

	user := reviewableUser(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	mockRepo.EXPECT().UpdateDocumentReview(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			assert.Equal(t, domain.DocumentRejected, u.Document.Status)
			assert.Equal(t, "photo is unreadable", u.Document.RejectionReason)
			assert.False(t, u.IsDocumentVerified)
			assert.False(t, u.IsFullyVerified)
			return nil
		})

	notified := make(chan struct{})
	mockMailer.EXPECT().SendDocumentReviewed(gomock.Any(), user.Email, user.FullName, false, "photo is unreadable").
		DoAndReturn(func(context.Context, string, string, bool, string) error {
			close(notified)
			return nil
		})

	out, err := s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{
		UserID:          user.ID,
		Action:          "reject",
		RejectionReason: "photo is unreadable",
	})

	require.NoError(t, err)
	assert.Equal(t, "rejected", out.DocumentStatus)
	assert.Equal(t, domain.StepDocumentVerification, user.CurrentStep(),
		"a rejected user stays at document verification so they can resubmit")

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("review outcome email was never sent")
	}
}

func TestReviewService_NoReviewableDocument(t *testing.T) {
	tests := []struct {
		name string
		user func(t *testing.T) *domain.User
	}{
		{
			name: "no document uploaded",
			user: func(t *testing.T) *domain.User { return verifiedUser(t) },
		},
		{
			name: "already approved",
			user: func(t *testing.T) *domain.User {
				u := reviewableUser(t)
				u.ApproveDocument(time.Now())
				return u
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mocks.NewMockUserRepository(ctrl)
			s := service.NewReviewService(mockRepo, mocks.NewMockMailer(ctrl))

			user := tt.user(t)
			mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

			_, err := s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{
				UserID: user.ID,
				Action: "approve",
			})
			assert.ErrorIs(t, err, apperrors.ErrNoDocumentToReview)
		})
	}
}

func TestReviewService_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := service.NewReviewService(mocks.NewMockUserRepository(ctrl), mocks.NewMockMailer(ctrl))

	_, err := s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{UserID: "u", Action: "escalate"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{Action: "approve"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestReviewService_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewReviewService(mockRepo, mocks.NewMockMailer(ctrl))

	mockRepo.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, nil)

	_, err := s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{UserID: "ghost", Action: "approve"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestReviewService_PendingDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	s := service.NewReviewService(mockRepo, mocks.NewMockMailer(ctrl))

	first := reviewableUser(t)
	second := reviewableUser(t)
	second.ID = "user-456"
	second.Email = "second@example.com"

	mockRepo.EXPECT().ListPendingDocuments(gomock.Any()).
		Return([]*domain.User{first, second}, nil)

	out, err := s.PendingDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, first.ID, out[0].UserID)
	assert.Equal(t, "national_id", out[0].DocumentType)
	assert.Equal(t, "second@example.com", out[1].Email)
}

func TestReviewService_MailFailureDoesNotAffectDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockMailer := mocks.NewMockMailer(ctrl)
	s := service.NewReviewService(mockRepo, mockMailer)

	user := reviewableUser(t)

	mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	mockRepo.EXPECT().UpdateDocumentReview(gomock.Any(), gomock.Any()).Return(nil)

	notified := make(chan struct{})
	mockMailer.EXPECT().SendDocumentReviewed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, bool, string) error {
			close(notified)
			return assert.AnError
		})

	out, err := s.ReviewDocument(context.Background(), dto.ReviewDocumentInput{
		UserID: user.ID,
		Action: "approve",
	})

	require.NoError(t, err, "the committed decision must not be rolled back by a mail failure")
	assert.Equal(t, "approved", out.DocumentStatus)

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("review outcome email was never attempted")
	}
}

package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

type Role string

const (
	RoleUnset    Role = ""
	RoleAdmin    Role = "admin"
	RoleTraveler Role = "traveler"
	RoleSender   Role = "sender"
)

// VerificationStep is the single next action a user must take to reach
// full platform access.
type VerificationStep string

const (
	StepEmailVerification    VerificationStep = "email_verification"
	StepProfileCompletion    VerificationStep = "profile_completion"
	StepDocumentVerification VerificationStep = "document_verification"
	StepComplete             VerificationStep = "complete"
)

type DocumentType string

const (
	DocumentPassport     DocumentType = "passport"
	DocumentNationalID   DocumentType = "national_id"
	DocumentGovernmentID DocumentType = "government_id"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

const (
	VerificationCodeTTL = 10 * time.Minute
	MaxLoginAttempts    = 5
	LockDuration        = 30 * time.Minute
)

// Document is an identity document submitted during profile completion.
// Status only ever moves pending -> approved or pending -> rejected.
type Document struct {
	Type            DocumentType
	URL             string
	Status          DocumentStatus
	RejectionReason string
	UploadedAt      time.Time
	ReviewedAt      *time.Time
}

// TravelerInfo is the traveler sub-profile, present only for the
// traveler role.
type TravelerInfo struct {
	DestinationCountry  string     `json:"destination_country,omitempty"`
	DepartureTime       *time.Time `json:"departure_time,omitempty"`
	ArrivalTime         *time.Time `json:"arrival_time,omitempty"`
	CostPerKg           float64    `json:"cost_per_kg,omitempty"`
	PickUpLocation      string     `json:"pick_up_location,omitempty"`
	Airline             string     `json:"airline,omitempty"`
	StorageAvailable    string     `json:"storage_available,omitempty"`
	BookingAvailability bool       `json:"booking_availability"`
}

type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string

	PhoneNumber string
	Country     string
	Role        Role

	IsEmailVerified    bool
	IsProfileComplete  bool
	IsDocumentVerified bool
	IsFullyVerified    bool

	VerificationCode       string
	VerificationCodeExpiry *time.Time

	Document     *Document
	TravelerInfo *TravelerInfo

	LoginAttempts int
	LockUntil     *time.Time

	IsActive        bool
	TermsAccepted   bool
	PrivacyAccepted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentStep derives the onboarding step from the three verification
// flags. Evaluation order is fixed: email, then profile, then document.
func (u *User) CurrentStep() VerificationStep {
	if !u.IsEmailVerified {
		return StepEmailVerification
	}
	if !u.IsProfileComplete {
		return StepProfileCompletion
	}
	if !u.IsDocumentVerified {
		return StepDocumentVerification
	}
	return StepComplete
}

// RecomputeFullVerification re-derives IsFullyVerified from the three
// underlying flags. Every mutation of those flags must call this before
// the value is persisted or relied upon.
func (u *User) RecomputeFullVerification() {
	u.IsFullyVerified = u.IsEmailVerified && u.IsProfileComplete && u.IsDocumentVerified
}

// Locked reports whether the account is inside an active lockout window.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RegisterFailedLogin counts one failed password check and starts the
// lockout window once MaxLoginAttempts is reached. Lock expiry is
// passive: a stale LockUntil simply stops matching Locked.
func (u *User) RegisterFailedLogin(now time.Time) {
	u.LoginAttempts++
	if u.LoginAttempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		u.LockUntil = &until
	}
}

// ResetLoginAttempts clears the failure counter and any lockout window
// after a successful authentication.
func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// IssueVerificationCode generates a 6-digit email verification code
// valid for VerificationCodeTTL. Any previously issued code is
// overwritten; there is at most one live code per user.
func (u *User) IssueVerificationCode(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	expiry := now.Add(VerificationCodeTTL)
	u.VerificationCode = code
	u.VerificationCodeExpiry = &expiry

	return code, nil
}

// VerificationCodeValid reports whether candidate matches the stored
// code and now is strictly before its expiry. The code is not cleared
// here; clearing after successful verification is the caller's job.
func (u *User) VerificationCodeValid(candidate string, now time.Time) bool {
	return u.VerificationCode != "" &&
		u.VerificationCode == candidate &&
		u.VerificationCodeExpiry != nil &&
		now.Before(*u.VerificationCodeExpiry)
}

// ClearVerificationCode removes the outstanding code after it has been
// consumed.
func (u *User) ClearVerificationCode() {
	u.VerificationCode = ""
	u.VerificationCodeExpiry = nil
}

// DocumentTypeAllowed reports whether the document type satisfies the
// role pairing: travelers submit a passport, senders a national or
// government ID.
func DocumentTypeAllowed(role Role, dt DocumentType) bool {
	switch role {
	case RoleTraveler:
		return dt == DocumentPassport
	case RoleSender:
		return dt == DocumentNationalID || dt == DocumentGovernmentID
	default:
		return false
	}
}

// AttachDocument records a freshly uploaded document in pending state.
// The role pairing must already have been validated.
func (u *User) AttachDocument(dt DocumentType, url string, now time.Time) {
	u.Document = &Document{
		Type:       dt,
		URL:        url,
		Status:     DocumentPending,
		UploadedAt: now,
	}
}

// HasReviewableDocument reports whether a pending document with a
// non-empty URL is awaiting review.
func (u *User) HasReviewableDocument() bool {
	return u.Document != nil && u.Document.Status == DocumentPending && u.Document.URL != ""
}

// ApproveDocument marks the pending document approved, stamps the
// review time, sets the document-verified flag and recomputes full
// verification.
func (u *User) ApproveDocument(now time.Time) {
	u.Document.Status = DocumentApproved
	u.Document.ReviewedAt = &now
	u.IsDocumentVerified = true
	u.RecomputeFullVerification()
}

// RejectDocument marks the pending document rejected with an optional
// reason. The document-verified flag stays false.
func (u *User) RejectDocument(reason string, now time.Time) {
	u.Document.Status = DocumentRejected
	u.Document.ReviewedAt = &now
	if reason != "" {
		u.Document.RejectionReason = reason
	}
	u.RecomputeFullVerification()
}

package dto

import "time"

type UserOutput struct {
	ID                 string `json:"id"`
	FullName           string `json:"full_name"`
	Email              string `json:"email"`
	Role               string `json:"role,omitempty"`
	IsEmailVerified    bool   `json:"is_email_verified"`
	IsProfileComplete  bool   `json:"is_profile_complete"`
	IsDocumentVerified bool   `json:"is_document_verified"`
	IsFullyVerified    bool   `json:"is_fully_verified"`
}

type DocumentOutput struct {
	Type            string     `json:"type"`
	URL             string     `json:"url"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	UploadedAt      time.Time  `json:"uploaded_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

type VerificationStatusOutput struct {
	User        UserOutput      `json:"user"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	Country     string          `json:"country,omitempty"`
	CurrentStep string          `json:"current_step"`
	Document    *DocumentOutput `json:"document,omitempty"`
}

package dto

import "time"

type ReviewDocumentInput struct {
	UserID          string `json:"user_id"`
	Action          string `json:"action"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type ReviewDocumentOutput struct {
	UserID             string `json:"user_id"`
	DocumentStatus     string `json:"document_status"`
	IsDocumentVerified bool   `json:"is_document_verified"`
	IsFullyVerified    bool   `json:"is_fully_verified"`
}

type PendingDocumentOutput struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Country      string    `json:"country"`
	DocumentType string    `json:"document_type"`
	DocumentURL  string    `json:"document_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

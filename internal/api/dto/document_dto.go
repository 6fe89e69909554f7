package dto

import (
	"time"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// ReviewDocumentRequest verifies or rejects an upload.
type ReviewDocumentRequest struct {
	Status domain.DocumentStatus `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	Note   string                `json:"note" validate:"required_if=Status REJECTED,max=1000"`
}

// DocumentResponse metadata.
type DocumentResponse struct {
	ID         string                `json:"id"`
	CaseID     string                `json:"case_id"`
	UploadedBy string                `json:"uploaded_by"`
	FileName   string                `json:"file_name"`
	MimeType   string                `json:"mime_type"`
	SizeBytes  int64                 `json:"size_bytes"`
	Checksum   string                `json:"checksum"`
	Status     domain.DocumentStatus `json:"status"`
	VerifiedBy *string               `json:"verified_by"`
	VerifiedAt *time.Time            `json:"verified_at"`
	ReviewNote string                `json:"review_note,omitempty"`
	URL        string                `json:"url"`
	CreatedAt  time.Time             `json:"created_at"`
}

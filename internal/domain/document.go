package domain

import "time"

// DocumentStatus tracks verification of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// Document is metadata for an uploaded case file. Content lives in the blob store.
type Document struct {
	ID         string
	CaseID     string
	UploadedBy string
	FileName   string
	MimeType   string
	SizeBytes  int64
	StorageKey string
	Checksum   string
	Status     DocumentStatus
	VerifiedBy *string
	VerifiedAt *time.Time
	ReviewNote string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

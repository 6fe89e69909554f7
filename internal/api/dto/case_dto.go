package dto

import (
	"time"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// CreateCaseRequest registers a case. ClientID is only honoured for staff registering on a client's behalf.
type CreateCaseRequest struct {
	ClientID    *string             `json:"client_id" validate:"omitempty,uuid"`
	OfficeID    string              `json:"office_id" validate:"required,uuid"`
	Title       string              `json:"title" validate:"required,min=3,max=200"`
	Description string              `json:"description" validate:"required,max=5000"`
	Category    domain.CaseCategory `json:"category" validate:"required,oneof=CIVIL CRIMINAL FAMILY LABOR LAND OTHER"`
	Priority    domain.CasePriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

// UpdateCaseStatusRequest moves a case along its lifecycle.
type UpdateCaseStatusRequest struct {
	Status domain.CaseStatus `json:"status" validate:"required,oneof=PENDING ASSIGNED IN_PROGRESS RESOLVED CLOSED REJECTED"`
	Reason string            `json:"reason" validate:"max=1000"`
}

// UpdateCasePriorityRequest changes urgency.
type UpdateCasePriorityRequest struct {
	Priority domain.CasePriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

// AssignLawyerRequest payload.
type AssignLawyerRequest struct {
	LawyerID string `json:"lawyer_id" validate:"required,uuid"`
}

// ReassignCoordinatorRequest payload.
type ReassignCoordinatorRequest struct {
	CoordinatorID string `json:"coordinator_id" validate:"required,uuid"`
}

// CreateNoteRequest adds a comment to a case.
type CreateNoteRequest struct {
	Body       string                `json:"body" validate:"required,max=5000"`
	Visibility domain.NoteVisibility `json:"visibility" validate:"omitempty,oneof=PUBLIC INTERNAL"`
}

// CaseResponse describes a case.
type CaseResponse struct {
	ID            string              `json:"id"`
	CaseNumber    string              `json:"case_number"`
	ClientID      string              `json:"client_id"`
	OfficeID      string              `json:"office_id"`
	CoordinatorID *string             `json:"coordinator_id"`
	LawyerID      *string             `json:"lawyer_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      domain.CaseCategory `json:"category"`
	Priority      domain.CasePriority `json:"priority"`
	Status        domain.CaseStatus   `json:"status"`
	Kebele        *string             `json:"kebele"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	ClosedAt      *time.Time          `json:"closed_at"`
}

// CaseNoteResponse represents a thread entry.
type CaseNoteResponse struct {
	ID         string                `json:"id"`
	CaseID     string                `json:"case_id"`
	AuthorID   string                `json:"author_id"`
	Visibility domain.NoteVisibility `json:"visibility"`
	Body       string                `json:"body"`
	CreatedAt  time.Time             `json:"created_at"`
}

// CaseHistoryResponse is one audit entry.
type CaseHistoryResponse struct {
	ID          string                `json:"id"`
	ChangeType  domain.CaseChangeType `json:"change_type"`
	ChangedByID *string               `json:"changed_by_id"`
	OldValue    map[string]any        `json:"old_value"`
	NewValue    map[string]any        `json:"new_value"`
	CreatedAt   time.Time             `json:"created_at"`
}

// CaseAssignmentResponse is one coordinator assignment.
type CaseAssignmentResponse struct {
	ID            string                  `json:"id"`
	CaseID        string                  `json:"case_id"`
	CoordinatorID string                  `json:"coordinator_id"`
	OfficeID      string                  `json:"office_id"`
	Status        domain.AssignmentStatus `json:"status"`
	AssignedAt    time.Time               `json:"assigned_at"`
	CompletedAt   *time.Time              `json:"completed_at"`
}

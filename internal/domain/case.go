package domain

import "time"

// CaseStatus enumerates lifecycle states for cases.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "PENDING"
	CaseStatusAssigned   CaseStatus = "ASSIGNED"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusResolved   CaseStatus = "RESOLVED"
	CaseStatusClosed     CaseStatus = "CLOSED"
	CaseStatusRejected   CaseStatus = "REJECTED"
)

// CaseCategory classifies the legal matter.
type CaseCategory string

const (
	CaseCategoryCivil    CaseCategory = "CIVIL"
	CaseCategoryCriminal CaseCategory = "CRIMINAL"
	CaseCategoryFamily   CaseCategory = "FAMILY"
	CaseCategoryLabor    CaseCategory = "LABOR"
	CaseCategoryLand     CaseCategory = "LAND"
	CaseCategoryOther    CaseCategory = "OTHER"
)

// CasePriority enumerates urgency.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
	CasePriorityUrgent CasePriority = "URGENT"
)

// Case is the aggregate for a client's legal-aid request.
type Case struct {
	ID            string
	CaseNumber    string
	ClientID      string
	OfficeID      string
	CoordinatorID *string
	LawyerID      *string
	Title         string
	Description   string
	Category      CaseCategory
	Priority      CasePriority
	Status        CaseStatus
	Kebele        *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}

// IsTerminal reports whether no further status change is possible.
func (c *Case) IsTerminal() bool {
	return c.Status == CaseStatusClosed || c.Status == CaseStatusRejected
}

// AssignmentStatus tracks whether a coordinator assignment still counts as workload.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "PENDING"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
)

// CaseAssignment records a coordinator taking a case.
type CaseAssignment struct {
	ID            string
	CaseID        string
	CoordinatorID string
	OfficeID      string
	Status        AssignmentStatus
	AssignedAt    time.Time
	CompletedAt   *time.Time
}

// CoordinatorWorkload is a coordinator with the number of pending assignments they hold.
type CoordinatorWorkload struct {
	CoordinatorID string    `json:"coordinator_id"`
	Name          string    `json:"name"`
	OfficeID      string    `json:"office_id"`
	Pending       int       `json:"pending"`
	JoinedAt      time.Time `json:"joined_at"`
}

// CaseChangeType captures what changed in a history entry.
type CaseChangeType string

const (
	ChangeTypeStatus      CaseChangeType = "STATUS_CHANGE"
	ChangeTypeCoordinator CaseChangeType = "COORDINATOR_CHANGE"
	ChangeTypeLawyer      CaseChangeType = "LAWYER_CHANGE"
	ChangeTypePriority    CaseChangeType = "PRIORITY_CHANGE"
)

// CaseHistory is an immutable audit trail entry.
type CaseHistory struct {
	ID          string
	CaseID      string
	ChangedByID *string
	ChangeType  CaseChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}

// NoteVisibility controls who can read a case note.
type NoteVisibility string

const (
	NoteVisibilityPublic   NoteVisibility = "PUBLIC"
	NoteVisibilityInternal NoteVisibility = "INTERNAL"
)

// CaseNote is a comment on a case thread.
type CaseNote struct {
	ID         string
	CaseID     string
	AuthorID   string
	Visibility NoteVisibility
	Body       string
	CreatedAt  time.Time
}

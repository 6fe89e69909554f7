package domain

import "time"

// AppealStatus enumerates appeal lifecycle states.
type AppealStatus string

const (
	AppealStatusPending   AppealStatus = "PENDING"
	AppealStatusScheduled AppealStatus = "SCHEDULED"
	AppealStatusGranted   AppealStatus = "GRANTED"
	AppealStatusDenied    AppealStatus = "DENIED"
	AppealStatusWithdrawn AppealStatus = "WITHDRAWN"
)

// Appeal is a lawyer-filed request to contest a case outcome.
type Appeal struct {
	ID          string
	CaseID      string
	LawyerID    string
	Title       string
	Grounds     string
	Court       string
	HearingDate *time.Time
	Status      AppealStatus
	Decision    string
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOpen reports whether the appeal still awaits a decision.
func (a *Appeal) IsOpen() bool {
	return a.Status == AppealStatusPending || a.Status == AppealStatusScheduled
}

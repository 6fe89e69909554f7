package dto

import (
	"time"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// FileAppealRequest payload.
type FileAppealRequest struct {
	CaseID  string `json:"case_id" validate:"required,uuid"`
	Title   string `json:"title" validate:"required,min=3,max=200"`
	Grounds string `json:"grounds" validate:"required,max=10000"`
	Court   string `json:"court" validate:"required,max=200"`
}

// ScheduleHearingRequest payload.
type ScheduleHearingRequest struct {
	HearingDate time.Time `json:"hearing_date" validate:"required"`
}

// DecideAppealRequest records the court outcome.
type DecideAppealRequest struct {
	Outcome  domain.AppealStatus `json:"outcome" validate:"required,oneof=GRANTED DENIED"`
	Decision string              `json:"decision" validate:"required,max=10000"`
}

// AppealResponse describes an appeal.
type AppealResponse struct {
	ID          string              `json:"id"`
	CaseID      string              `json:"case_id"`
	LawyerID    string              `json:"lawyer_id"`
	Title       string              `json:"title"`
	Grounds     string              `json:"grounds"`
	Court       string              `json:"court"`
	HearingDate *time.Time          `json:"hearing_date"`
	Status      domain.AppealStatus `json:"status"`
	Decision    string              `json:"decision,omitempty"`
	DecidedAt   *time.Time          `json:"decided_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

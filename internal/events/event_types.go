package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseRegistered      EventType = "case_registered"
	EventCaseAssigned        EventType = "case_assigned"
	EventCaseStatusChanged   EventType = "case_status_changed"
	EventCaseLawyerAssigned  EventType = "case_lawyer_assigned"
	EventAppealUpdated       EventType = "appeal_updated"
	EventDocumentReviewed    EventType = "document_reviewed"
	EventAppointmentUpdated  EventType = "appointment_updated"
	EventAppointmentReminder EventType = "appointment_reminder"
	EventPaymentUpdated      EventType = "payment_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, entityID string, actorID *string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// CaseRegisteredPayload payload.
type CaseRegisteredPayload struct {
	CaseNumber string `json:"case_number"`
	Title      string `json:"title"`
	ClientID   string `json:"client_id"`
	OfficeID   string `json:"office_id"`
}

// CaseAssignedPayload payload.
type CaseAssignedPayload struct {
	CaseNumber            string  `json:"case_number"`
	ClientID              string  `json:"client_id"`
	CoordinatorID         string  `json:"coordinator_id"`
	PreviousCoordinatorID *string `json:"previous_coordinator_id,omitempty"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	CaseNumber    string            `json:"case_number"`
	ClientID      string            `json:"client_id"`
	CoordinatorID *string           `json:"coordinator_id,omitempty"`
	LawyerID      *string           `json:"lawyer_id,omitempty"`
	OldStatus     domain.CaseStatus `json:"old_status"`
	NewStatus     domain.CaseStatus `json:"new_status"`
	Reason        string            `json:"reason,omitempty"`
}

// CaseLawyerAssignedPayload payload.
type CaseLawyerAssignedPayload struct {
	CaseNumber       string  `json:"case_number"`
	ClientID         string  `json:"client_id"`
	LawyerID         string  `json:"lawyer_id"`
	PreviousLawyerID *string `json:"previous_lawyer_id,omitempty"`
}

// AppealUpdatedPayload payload.
type AppealUpdatedPayload struct {
	CaseID      string              `json:"case_id"`
	ClientID    string              `json:"client_id"`
	LawyerID    string              `json:"lawyer_id"`
	Title       string              `json:"title"`
	Status      domain.AppealStatus `json:"status"`
	HearingDate *time.Time          `json:"hearing_date,omitempty"`
}

// DocumentReviewedPayload payload.
type DocumentReviewedPayload struct {
	CaseID     string                `json:"case_id"`
	UploadedBy string                `json:"uploaded_by"`
	FileName   string                `json:"file_name"`
	Status     domain.DocumentStatus `json:"status"`
	Note       string                `json:"note,omitempty"`
}

// AppointmentUpdatedPayload payload. Used for reminders as well.
type AppointmentUpdatedPayload struct {
	ClientID string                   `json:"client_id"`
	StaffID  string                   `json:"staff_id"`
	Status   domain.AppointmentStatus `json:"status"`
	StartsAt time.Time                `json:"starts_at"`
	Location string                   `json:"location,omitempty"`
}

// PaymentUpdatedPayload payload.
type PaymentUpdatedPayload struct {
	CaseID      string               `json:"case_id"`
	ClientID    string               `json:"client_id"`
	AmountCents int64                `json:"amount_cents"`
	Currency    string               `json:"currency"`
	Status      domain.PaymentStatus `json:"status"`
}

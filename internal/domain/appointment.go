package domain

import "time"

// AppointmentStatus enumerates appointment lifecycle states.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a meeting between a client and a lawyer or coordinator.
type Appointment struct {
	ID             string
	CaseID         *string
	ClientID       string
	StaffID        string
	StartsAt       time.Time
	EndsAt         time.Time
	Location       string
	Purpose        string
	Status         AppointmentStatus
	ReminderSentAt *time.Time
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the appointment still occupies the staff member's calendar.
func (a *Appointment) IsActive() bool {
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusConfirmed
}

// Involves reports whether userID is a participant.
func (a *Appointment) Involves(userID string) bool {
	return a.ClientID == userID || a.StaffID == userID
}

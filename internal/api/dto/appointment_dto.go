package dto

import (
	"time"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// ScheduleAppointmentRequest payload. Empty participant ids default to the caller where the role allows.
type ScheduleAppointmentRequest struct {
	ClientID string    `json:"client_id" validate:"omitempty,uuid"`
	StaffID  string    `json:"staff_id" validate:"omitempty,uuid"`
	CaseID   *string   `json:"case_id" validate:"omitempty,uuid"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Location string    `json:"location" validate:"required,max=200"`
	Purpose  string    `json:"purpose" validate:"max=1000"`
}

// RescheduleAppointmentRequest moves an appointment to a new window.
type RescheduleAppointmentRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

// AppointmentResponse describes an appointment.
type AppointmentResponse struct {
	ID             string                   `json:"id"`
	CaseID         *string                  `json:"case_id"`
	ClientID       string                   `json:"client_id"`
	StaffID        string                   `json:"staff_id"`
	StartsAt       time.Time                `json:"starts_at"`
	EndsAt         time.Time                `json:"ends_at"`
	Location       string                   `json:"location"`
	Purpose        string                   `json:"purpose"`
	Status         domain.AppointmentStatus `json:"status"`
	ReminderSentAt *time.Time               `json:"reminder_sent_at"`
	CreatedBy      string                   `json:"created_by"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

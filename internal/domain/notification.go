package domain

import "time"

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationCaseRegistered      NotificationType = "CASE_REGISTERED"
	NotificationCaseAssigned        NotificationType = "CASE_ASSIGNED"
	NotificationCaseStatusChanged   NotificationType = "CASE_STATUS_CHANGED"
	NotificationAppealUpdated       NotificationType = "APPEAL_UPDATED"
	NotificationDocumentReviewed    NotificationType = "DOCUMENT_REVIEWED"
	NotificationAppointmentUpdated  NotificationType = "APPOINTMENT_UPDATED"
	NotificationAppointmentReminder NotificationType = "APPOINTMENT_REMINDER"
	NotificationPaymentUpdated      NotificationType = "PAYMENT_UPDATED"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID         string
	UserID     string
	Type       NotificationType
	Title      string
	Body       string
	EntityType string
	EntityID   string
	ReadAt     *time.Time
	CreatedAt  time.Time
}

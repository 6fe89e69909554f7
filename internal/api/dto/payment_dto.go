package dto

import (
	"time"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// CreatePaymentRequest payload.
type CreatePaymentRequest struct {
	CaseID      string `json:"case_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
	Description string `json:"description" validate:"required,max=500"`
}

// UpdatePaymentStatusRequest payload.
type UpdatePaymentStatusRequest struct {
	Status    domain.PaymentStatus  `json:"status" validate:"required,oneof=PENDING PAID FAILED WAIVED REFUNDED"`
	Method    *domain.PaymentMethod `json:"method" validate:"omitempty,oneof=CASH BANK_TRANSFER MOBILE_MONEY"`
	Reference *string               `json:"reference" validate:"omitempty,max=120"`
}

// PaymentResponse describes a billing item.
type PaymentResponse struct {
	ID          string                `json:"id"`
	CaseID      string                `json:"case_id"`
	ClientID    string                `json:"client_id"`
	OfficeID    string                `json:"office_id"`
	AmountCents int64                 `json:"amount_cents"`
	Currency    string                `json:"currency"`
	Description string                `json:"description"`
	Method      *domain.PaymentMethod `json:"method"`
	Reference   *string               `json:"reference"`
	Status      domain.PaymentStatus  `json:"status"`
	PaidAt      *time.Time            `json:"paid_at"`
	CreatedBy   string                `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NotificationResponse is an in-app message.
type NotificationResponse struct {
	ID         string                  `json:"id"`
	Type       domain.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Body       string                  `json:"body"`
	EntityType string                  `json:"entity_type"`
	EntityID   string                  `json:"entity_id"`
	Read       bool                    `json:"read"`
	ReadAt     *time.Time              `json:"read_at"`
	CreatedAt  time.Time               `json:"created_at"`
}

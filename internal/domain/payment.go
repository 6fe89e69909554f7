package domain

import "time"

// PaymentStatus enumerates billing states.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusWaived   PaymentStatus = "WAIVED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod enumerates accepted settlement channels.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
)

// Payment is a billable item on a case.
type Payment struct {
	ID          string
	CaseID      string
	ClientID    string
	OfficeID    string
	AmountCents int64
	Currency    string
	Description string
	Method      *PaymentMethod
	Reference   *string
	Status      PaymentStatus
	PaidAt      *time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// DefaultCurrency is used when a payment is created without one.
const DefaultCurrency = "ETB"

var paymentTransitions = map[domain.PaymentStatus][]domain.PaymentStatus{
	domain.PaymentStatusPending: {domain.PaymentStatusPaid, domain.PaymentStatusFailed, domain.PaymentStatusWaived},
	domain.PaymentStatusFailed:  {domain.PaymentStatusPending},
	domain.PaymentStatusPaid:    {domain.PaymentStatusRefunded},
}

// PaymentService records billing items against cases. No gateway is involved;
// staff record settlements manually.
type PaymentService struct {
	payments repository.PaymentRepository
	cases    repository.CaseRepository
	events   publisher
	now      func() time.Time
}

// PaymentDependencies bundles collaborators.
type PaymentDependencies struct {
	PaymentRepo repository.PaymentRepository
	CaseRepo    repository.CaseRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// CreatePaymentInput describes a billing item.
type CreatePaymentInput struct {
	CaseID      string
	AmountCents int64
	Currency    string
	Description string
}

// PaymentStatusInput moves a payment along. Method and Reference are required for PAID.
type PaymentStatusInput struct {
	Status    domain.PaymentStatus
	Method    *domain.PaymentMethod
	Reference *string
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments: deps.PaymentRepo,
		cases:    deps.CaseRepo,
		events:   newPublisher(deps.Dispatcher, deps.Logger),
		now:      time.Now,
	}
}

func (s *PaymentService) Create(ctx context.Context, actor *domain.User, input CreatePaymentInput) (*domain.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, input.CaseID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": input.CaseID})
	}
	if !canManageCase(actor, c) {
		return nil, apperrors.NewForbidden("only the office coordinator or an administrator can bill a case")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", map[string]any{"amount_cents": input.AmountCents})
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, apperrors.NewValidationError("currency must be a 3-letter code", map[string]any{"currency": input.Currency})
	}

	payment := &domain.Payment{
		CaseID:      c.ID,
		ClientID:    c.ClientID,
		OfficeID:    c.OfficeID,
		AmountCents: input.AmountCents,
		Currency:    currency,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.PaymentStatusPending,
		CreatedBy:   actor.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor, payment)
	return payment, nil
}

// UpdateStatus applies a billing transition. PAID stamps paid_at.
func (s *PaymentService) UpdateStatus(ctx context.Context, actor *domain.User, id string, input PaymentStatusInput) (*domain.Payment, error) {
	payment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.BaseRoleAdmin && !(actor.Role == domain.BaseRoleCoordinator && actor.InOffice(payment.OfficeID)) {
		return nil, apperrors.NewForbidden("only the office coordinator or an administrator can update payments")
	}
	allowed := false
	for _, next := range paymentTransitions[payment.Status] {
		if next == input.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperrors.NewInvalidTransition("payment", payment.Status, input.Status)
	}

	from := payment.Status
	switch input.Status {
	case domain.PaymentStatusPaid:
		reference := trimPtr(input.Reference)
		if input.Method == nil || reference == nil {
			return nil, apperrors.NewValidationError("method and reference are required to mark a payment paid", map[string]any{
				"method":    "required",
				"reference": "required",
			})
		}
		switch *input.Method {
		case domain.PaymentMethodCash, domain.PaymentMethodBankTransfer, domain.PaymentMethodMobileMoney:
		default:
			return nil, apperrors.NewValidationError("unknown payment method", map[string]any{"method": *input.Method})
		}
		now := s.now().UTC()
		payment.Method = input.Method
		payment.Reference = reference
		payment.PaidAt = &now
	case domain.PaymentStatusPending:
		payment.Method = nil
		payment.Reference = nil
		payment.PaidAt = nil
	}
	payment.Status = input.Status
	if err := s.payments.Update(ctx, payment, from); err != nil {
		return nil, writeError(err, "payment", "payment_id", id)
	}
	s.publish(ctx, actor, payment)
	return payment, nil
}

// Get loads a payment. Clients see their own; staff their office.
func (s *PaymentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Payment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "payment", map[string]any{"payment_id": id})
	}
	visible := false
	switch actor.Role {
	case domain.BaseRoleAdmin:
		visible = true
	case domain.BaseRoleClient:
		visible = payment.ClientID == actor.ID
	case domain.BaseRoleCoordinator, domain.BaseRoleLawyer:
		visible = actor.InOffice(payment.OfficeID)
	}
	if !visible {
		return nil, apperrors.NewNotFound("payment", map[string]any{"payment_id": id})
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, actor *domain.User, filter repository.PaymentFilter) (ListResult[domain.Payment], error) {
	if err := requireActor(actor); err != nil {
		return ListResult[domain.Payment]{}, err
	}
	switch actor.Role {
	case domain.BaseRoleAdmin:
	case domain.BaseRoleClient:
		filter.ClientID = &actor.ID
	case domain.BaseRoleCoordinator, domain.BaseRoleLawyer:
		if actor.OfficeID == nil {
			return ListResult[domain.Payment]{}, apperrors.NewForbidden("staff member has no office")
		}
		filter.OfficeID = actor.OfficeID
	default:
		return ListResult[domain.Payment]{}, apperrors.NewForbidden("role cannot view payments")
	}
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return ListResult[domain.Payment]{}, apperrors.MapError(err)
	}
	return newListResult(payments, total, filter.Page), nil
}

func (s *PaymentService) publish(ctx context.Context, actor *domain.User, p *domain.Payment) {
	s.events.publish(ctx, events.New(events.EventPaymentUpdated, p.ID, &actor.ID, events.PaymentUpdatedPayload{
		CaseID:      p.CaseID,
		ClientID:    p.ClientID,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Status:      p.Status,
	}))
}

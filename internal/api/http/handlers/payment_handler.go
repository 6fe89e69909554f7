package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	"github.com/spec-kit/legal-aid-service/internal/service"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
)

// PaymentHandler exposes case billing.
type PaymentHandler struct {
	payments *service.PaymentService
	validate *validation.Validator
}

// NewPaymentHandler constructs handler.
func NewPaymentHandler(payments *service.PaymentService, validate *validation.Validator) *PaymentHandler {
	return &PaymentHandler{payments: payments, validate: validate}
}

// Create handles POST /payments.
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreatePaymentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	payment, err := h.payments.Create(c.UserContext(), actor, service.CreatePaymentInput{
		CaseID:      req.CaseID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return created(c, paymentResponse(payment))
}

// List handles GET /payments with case_id and status filters.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.payments.List(c.UserContext(), actor, repository.PaymentFilter{
		CaseID:   optionalQuery(c, "case_id"),
		Statuses: splitEnum[domain.PaymentStatus](c.Query("status")),
		Page:     pageFromQuery(c),
	})
	if err != nil {
		return err
	}
	return list(c, result, paymentResponse)
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	payment, err := h.payments.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, paymentResponse(payment))
}

// UpdateStatus handles PATCH /payments/:id/status.
func (h *PaymentHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePaymentStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	payment, err := h.payments.UpdateStatus(c.UserContext(), actor, c.Params("id"), service.PaymentStatusInput{
		Status:    req.Status,
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		return err
	}
	return ok(c, paymentResponse(payment))
}

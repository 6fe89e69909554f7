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

// AppealHandler exposes the appeal workflow.
type AppealHandler struct {
	appeals  *service.AppealService
	validate *validation.Validator
}

// NewAppealHandler constructs handler.
func NewAppealHandler(appeals *service.AppealService, validate *validation.Validator) *AppealHandler {
	return &AppealHandler{appeals: appeals, validate: validate}
}

// File handles POST /appeals.
func (h *AppealHandler) File(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.FileAppealRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	appeal, err := h.appeals.File(c.UserContext(), actor, service.FileAppealInput{
		CaseID:  req.CaseID,
		Title:   req.Title,
		Grounds: req.Grounds,
		Court:   req.Court,
	})
	if err != nil {
		return err
	}
	return created(c, appealResponse(appeal))
}

// List handles GET /appeals with case_id and status filters.
func (h *AppealHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.appeals.List(c.UserContext(), actor, repository.AppealFilter{
		CaseID:   optionalQuery(c, "case_id"),
		Statuses: splitEnum[domain.AppealStatus](c.Query("status")),
		Page:     pageFromQuery(c),
	})
	if err != nil {
		return err
	}
	return list(c, result, appealResponse)
}

func (h *AppealHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	appeal, err := h.appeals.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, appealResponse(appeal))
}

// ScheduleHearing handles POST /appeals/:id/hearing.
func (h *AppealHandler) ScheduleHearing(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleHearingRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	appeal, err := h.appeals.ScheduleHearing(c.UserContext(), actor, c.Params("id"), req.HearingDate)
	if err != nil {
		return err
	}
	return ok(c, appealResponse(appeal))
}

// Decide handles POST /appeals/:id/decision.
func (h *AppealHandler) Decide(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.DecideAppealRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	appeal, err := h.appeals.Decide(c.UserContext(), actor, c.Params("id"), req.Outcome, req.Decision)
	if err != nil {
		return err
	}
	return ok(c, appealResponse(appeal))
}

// Withdraw handles POST /appeals/:id/withdraw.
func (h *AppealHandler) Withdraw(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	appeal, err := h.appeals.Withdraw(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, appealResponse(appeal))
}

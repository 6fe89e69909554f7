package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	"github.com/spec-kit/legal-aid-service/internal/service"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
)

// AppointmentHandler exposes scheduling endpoints.
type AppointmentHandler struct {
	appointments *service.AppointmentService
	validate     *validation.Validator
}

// NewAppointmentHandler constructs handler.
func NewAppointmentHandler(appointments *service.AppointmentService, validate *validation.Validator) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, validate: validate}
}

// Schedule handles POST /appointments.
func (h *AppointmentHandler) Schedule(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleAppointmentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	appt, err := h.appointments.Schedule(c.UserContext(), actor, service.ScheduleInput{
		ClientID: req.ClientID,
		StaffID:  req.StaffID,
		CaseID:   req.CaseID,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Location: req.Location,
		Purpose:  req.Purpose,
	})
	if err != nil {
		return err
	}
	return created(c, appointmentResponse(appt))
}

// List handles GET /appointments with case_id, status, from and to filters.
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.appointments.List(c.UserContext(), actor, repository.AppointmentFilter{
		CaseID:   optionalQuery(c, "case_id"),
		Statuses: splitEnum[domain.AppointmentStatus](c.Query("status")),
		From:     parseTime(c.Query("from")),
		To:       parseTime(c.Query("to")),
		Page:     pageFromQuery(c),
	})
	if err != nil {
		return err
	}
	return list(c, result, appointmentResponse)
}

func (h *AppointmentHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	appt, err := h.appointments.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, appointmentResponse(appt))
}

func (h *AppointmentHandler) Confirm(c *fiber.Ctx) error {
	return h.transition(c, h.appointments.Confirm)
}

func (h *AppointmentHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.appointments.Complete)
}

func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.appointments.Cancel)
}

// Reschedule handles POST /appointments/:id/reschedule.
func (h *AppointmentHandler) Reschedule(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RescheduleAppointmentRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	appt, err := h.appointments.Reschedule(c.UserContext(), actor, c.Params("id"), req.StartsAt, req.EndsAt)
	if err != nil {
		return err
	}
	return ok(c, appointmentResponse(appt))
}

type appointmentAction func(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error)

func (h *AppointmentHandler) transition(c *fiber.Ctx, action appointmentAction) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	appt, err := action(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, appointmentResponse(appt))
}

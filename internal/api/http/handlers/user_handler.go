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

// UserHandler covers admin account management and kebele residency checks.
type UserHandler struct {
	users    *service.UserService
	validate *validation.Validator
}

// NewUserHandler constructs handler.
func NewUserHandler(users *service.UserService, validate *validation.Validator) *UserHandler {
	return &UserHandler{users: users, validate: validate}
}

// Create handles POST /users.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.CreateStaff(c.UserContext(), service.CreateStaffInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		RoleID:   req.RoleID,
		OfficeID: req.OfficeID,
		Kebele:   req.Kebele,
	})
	if err != nil {
		return err
	}
	return created(c, userResponse(user))
}

// List handles GET /users with role_id, base_role, office_id, kebele, status and q filters.
func (h *UserHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		RoleID:   optionalQuery(c, "role_id"),
		OfficeID: optionalQuery(c, "office_id"),
		Kebele:   optionalQuery(c, "kebele"),
		Search:   optionalQuery(c, "q"),
		Page:     pageFromQuery(c),
	}
	if raw := optionalQuery(c, "base_role"); raw != nil {
		role := domain.BaseRole(*raw)
		filter.BaseRole = &role
	}
	if raw := optionalQuery(c, "status"); raw != nil {
		status := domain.UserStatus(*raw)
		filter.Status = &status
	}
	result, err := h.users.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return list(c, result, userResponse)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, userResponse(user))
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), c.Params("id"), service.UpdateUserInput{
		Name:     req.Name,
		Phone:    req.Phone,
		RoleID:   req.RoleID,
		OfficeID: req.OfficeID,
		Kebele:   req.Kebele,
	})
	if err != nil {
		return err
	}
	return ok(c, userResponse(user))
}

// Activate handles POST /users/:id/activate.
func (h *UserHandler) Activate(c *fiber.Ctx) error {
	return h.setStatus(c, domain.UserStatusActive)
}

// Deactivate handles POST /users/:id/deactivate.
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	return h.setStatus(c, domain.UserStatusSuspended)
}

func (h *UserHandler) setStatus(c *fiber.Ctx, status domain.UserStatus) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.users.SetStatus(c.UserContext(), actor, c.Params("id"), status)
	if err != nil {
		return err
	}
	return ok(c, userResponse(user))
}

// Residents handles GET /residents for kebele managers.
func (h *UserHandler) Residents(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.users.ListResidents(c.UserContext(), actor, optionalQuery(c, "q"), pageFromQuery(c))
	if err != nil {
		return err
	}
	return list(c, result, userResponse)
}

// VerifyResident handles POST /residents/:id/verify.
func (h *UserHandler) VerifyResident(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.users.VerifyResidency(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, userResponse(user))
}

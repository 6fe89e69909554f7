package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/service"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
)

// RoleHandler manages roles and permissions.
type RoleHandler struct {
	roles    *service.RoleService
	validate *validation.Validator
}

// NewRoleHandler constructs handler.
func NewRoleHandler(roles *service.RoleService, validate *validation.Validator) *RoleHandler {
	return &RoleHandler{roles: roles, validate: validate}
}

func (h *RoleHandler) List(c *fiber.Ctx) error {
	roles, err := h.roles.List(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, mapSlice(roles, roleResponse))
}

func (h *RoleHandler) Get(c *fiber.Ctx) error {
	role, err := h.roles.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, roleResponse(role))
}

func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	role, err := h.roles.Create(c.UserContext(), service.RoleInput{
		Name:        req.Name,
		BaseRole:    req.BaseRole,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return created(c, roleResponse(role))
}

func (h *RoleHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	role, err := h.roles.Update(c.UserContext(), c.Params("id"), service.RoleInput{
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return ok(c, roleResponse(role))
}

func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	if err := h.roles.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Permissions lists every permission a role may grant.
func (h *RoleHandler) Permissions(c *fiber.Ctx) error {
	return ok(c, domain.AllPermissions)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/service"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
)

// OfficeHandler manages legal-aid offices.
type OfficeHandler struct {
	offices  *service.OfficeService
	validate *validation.Validator
}

// NewOfficeHandler constructs handler.
func NewOfficeHandler(offices *service.OfficeService, validate *validation.Validator) *OfficeHandler {
	return &OfficeHandler{offices: offices, validate: validate}
}

// List handles GET /offices. include_inactive=true shows closed offices too.
func (h *OfficeHandler) List(c *fiber.Ctx) error {
	offices, err := h.offices.List(c.UserContext(), c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	return ok(c, mapSlice(offices, officeResponse))
}

func (h *OfficeHandler) Get(c *fiber.Ctx) error {
	office, err := h.offices.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, officeResponse(office))
}

func (h *OfficeHandler) Create(c *fiber.Ctx) error {
	var req dto.OfficeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	office, err := h.offices.Create(c.UserContext(), officeInput(req))
	if err != nil {
		return err
	}
	return created(c, officeResponse(office))
}

func (h *OfficeHandler) Update(c *fiber.Ctx) error {
	var req dto.OfficeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	office, err := h.offices.Update(c.UserContext(), c.Params("id"), officeInput(req))
	if err != nil {
		return err
	}
	return ok(c, officeResponse(office))
}

func officeInput(req dto.OfficeRequest) service.OfficeInput {
	return service.OfficeInput{
		Code:     req.Code,
		Name:     req.Name,
		Region:   req.Region,
		Zone:     req.Zone,
		Woreda:   req.Woreda,
		Kebele:   req.Kebele,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	}
}

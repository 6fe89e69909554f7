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

// CaseHandler exposes case registration and the case thread.
type CaseHandler struct {
	cases       *service.CaseService
	assignments *service.AssignmentService
	validate    *validation.Validator
}

// NewCaseHandler constructs handler.
func NewCaseHandler(cases *service.CaseService, assignments *service.AssignmentService, validate *validation.Validator) *CaseHandler {
	return &CaseHandler{cases: cases, assignments: assignments, validate: validate}
}

// Create handles POST /cases.
func (h *CaseHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateCaseRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	registered, err := h.cases.Register(c.UserContext(), actor, service.RegisterCaseInput{
		ClientID:    req.ClientID,
		OfficeID:    req.OfficeID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return created(c, caseResponse(registered))
}

// List handles GET /cases.
func (h *CaseHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	result, err := h.cases.List(c.UserContext(), actor, caseFilterFromQuery(c))
	if err != nil {
		return err
	}
	return list(c, result, caseResponse)
}

func (h *CaseHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	found, err := h.cases.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, caseResponse(found))
}

// UpdateStatus handles PATCH /cases/:id/status.
func (h *CaseHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCaseStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	updated, err := h.cases.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Reason)
	if err != nil {
		return err
	}
	return ok(c, caseResponse(updated))
}

// UpdatePriority handles PATCH /cases/:id/priority.
func (h *CaseHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCasePriorityRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	updated, err := h.cases.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return ok(c, caseResponse(updated))
}

// AssignLawyer handles PUT /cases/:id/lawyer.
func (h *CaseHandler) AssignLawyer(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignLawyerRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	updated, err := h.cases.AssignLawyer(c.UserContext(), actor, c.Params("id"), req.LawyerID)
	if err != nil {
		return err
	}
	return ok(c, caseResponse(updated))
}

// ReassignCoordinator handles PUT /cases/:id/coordinator.
func (h *CaseHandler) ReassignCoordinator(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ReassignCoordinatorRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	updated, err := h.cases.ReassignCoordinator(c.UserContext(), actor, c.Params("id"), req.CoordinatorID)
	if err != nil {
		return err
	}
	return ok(c, caseResponse(updated))
}

// AddNote handles POST /cases/:id/notes.
func (h *CaseHandler) AddNote(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	note, err := h.cases.AddNote(c.UserContext(), actor, c.Params("id"), req.Body, req.Visibility)
	if err != nil {
		return err
	}
	return created(c, noteResponse(note))
}

func (h *CaseHandler) ListNotes(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	notes, err := h.cases.ListNotes(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, mapSlice(notes, noteResponse))
}

func (h *CaseHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.cases.ListHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, mapSlice(entries, historyResponse))
}

func (h *CaseHandler) ListAssignments(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	rows, err := h.cases.ListAssignments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, mapSlice(rows, assignmentResponse))
}

// Workloads handles GET /assignments/workloads. Coordinators only see their own office.
func (h *CaseHandler) Workloads(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	officeID := optionalQuery(c, "office_id")
	if actor.Role == domain.BaseRoleCoordinator {
		officeID = actor.OfficeID
	}
	workloads, err := h.assignments.Workloads(c.UserContext(), officeID)
	if err != nil {
		return err
	}
	if workloads == nil {
		workloads = []domain.CoordinatorWorkload{}
	}
	return ok(c, workloads)
}

func caseFilterFromQuery(c *fiber.Ctx) repository.CaseFilter {
	return repository.CaseFilter{
		OfficeID:    optionalQuery(c, "office_id"),
		Statuses:    splitEnum[domain.CaseStatus](c.Query("status")),
		Categories:  splitEnum[domain.CaseCategory](c.Query("category")),
		Priorities:  splitEnum[domain.CasePriority](c.Query("priority")),
		Search:      optionalQuery(c, "q"),
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
		Page:        pageFromQuery(c),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// allowedTransitions is the case lifecycle. Terminal states have no entry.
var allowedTransitions = map[domain.CaseStatus][]domain.CaseStatus{
	domain.CaseStatusPending:    {domain.CaseStatusAssigned, domain.CaseStatusRejected},
	domain.CaseStatusAssigned:   {domain.CaseStatusInProgress, domain.CaseStatusRejected},
	domain.CaseStatusInProgress: {domain.CaseStatusResolved},
	domain.CaseStatusResolved:   {domain.CaseStatusClosed, domain.CaseStatusInProgress},
}

// CanTransition reports whether a case may move from one status to another.
func CanTransition(from, to domain.CaseStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CaseService orchestrates case intake and lifecycle.
type CaseService struct {
	cases       repository.CaseRepository
	users       repository.UserRepository
	offices     repository.OfficeRepository
	assignments repository.CaseAssignmentRepository
	history     repository.CaseHistoryRepository
	notes       repository.CaseNoteRepository
	assigner    *AssignmentService
	logger      *zap.Logger
	events      publisher
	now         func() time.Time
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	CaseRepo       repository.CaseRepository
	UserRepo       repository.UserRepository
	OfficeRepo     repository.OfficeRepository
	AssignmentRepo repository.CaseAssignmentRepository
	HistoryRepo    repository.CaseHistoryRepository
	NoteRepo       repository.CaseNoteRepository
	Assigner       *AssignmentService
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// RegisterCaseInput is the intake payload. ClientID is only honoured for staff registering on behalf of a client.
type RegisterCaseInput struct {
	ClientID    *string
	OfficeID    string
	Title       string
	Description string
	Category    domain.CaseCategory
	Priority    domain.CasePriority
}

// NewCaseService wires dependencies.
func NewCaseService(deps CaseDependencies) *CaseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		cases:       deps.CaseRepo,
		users:       deps.UserRepo,
		offices:     deps.OfficeRepo,
		assignments: deps.AssignmentRepo,
		history:     deps.HistoryRepo,
		notes:       deps.NoteRepo,
		assigner:    deps.Assigner,
		logger:      logger,
		events:      newPublisher(deps.Dispatcher, logger),
		now:         time.Now,
	}
}

// Register creates a PENDING case and hands it to a coordinator of the office.
// Assignment failures leave the case PENDING; registration still succeeds.
func (s *CaseService) Register(ctx context.Context, actor *domain.User, input RegisterCaseInput) (*domain.Case, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	client, err := s.resolveClient(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	office, err := s.offices.GetByID(ctx, input.OfficeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown office", map[string]any{"office_id": input.OfficeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !office.IsActive {
		return nil, apperrors.NewValidationError("office is not accepting cases", map[string]any{"office_id": input.OfficeID})
	}
	if actor.Role == domain.BaseRoleCoordinator && !actor.InOffice(office.ID) {
		return nil, apperrors.NewForbidden("coordinators register cases for their own office only")
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.CasePriorityMedium
	}
	c := &domain.Case{
		CaseNumber:  s.caseNumber(),
		ClientID:    client.ID,
		OfficeID:    office.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Priority:    priority,
		Status:      domain.CaseStatusPending,
		Kebele:      client.Kebele,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("case registered",
		zap.String("case_id", c.ID),
		zap.String("case_number", c.CaseNumber),
		zap.String("office_id", c.OfficeID))
	s.events.publish(ctx, events.New(events.EventCaseRegistered, c.ID, &actor.ID, events.CaseRegisteredPayload{
		CaseNumber: c.CaseNumber,
		Title:      c.Title,
		ClientID:   c.ClientID,
		OfficeID:   c.OfficeID,
	}))

	if s.assigner != nil {
		if _, err := s.assigner.AutoAssign(ctx, c, &actor.ID); err != nil && !errors.Is(err, ErrNoCoordinatorAvailable) {
			s.logger.Error("auto assignment failed, case left pending", zap.String("case_id", c.ID), zap.Error(err))
		}
	}
	return c, nil
}

func (s *CaseService) resolveClient(ctx context.Context, actor *domain.User, input RegisterCaseInput) (*domain.User, error) {
	switch actor.Role {
	case domain.BaseRoleClient:
		return actor, nil
	case domain.BaseRoleAdmin, domain.BaseRoleCoordinator:
		clientID := trimPtr(input.ClientID)
		if clientID == nil {
			return nil, apperrors.NewValidationError("client_id is required", map[string]any{"client_id": "required when registering on behalf of a client"})
		}
		client, err := s.users.GetByID(ctx, *clientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown client", map[string]any{"client_id": *clientID})
			}
			return nil, apperrors.MapError(err)
		}
		if client.Role != domain.BaseRoleClient || !client.Active() {
			return nil, apperrors.NewValidationError("user is not an active client", map[string]any{"client_id": *clientID})
		}
		return client, nil
	}
	return nil, apperrors.NewForbidden("role cannot register cases")
}

func (s *CaseService) caseNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("LA-%s-%s", s.now().UTC().Format("20060102"), suffix)
}

// List returns the cases actor may see matching filter.
func (s *CaseService) List(ctx context.Context, actor *domain.User, filter repository.CaseFilter) (ListResult[domain.Case], error) {
	if err := requireActor(actor); err != nil {
		return ListResult[domain.Case]{}, err
	}
	if err := applyCaseScope(actor, &filter); err != nil {
		return ListResult[domain.Case]{}, err
	}
	cases, total, err := s.cases.List(ctx, filter)
	if err != nil {
		return ListResult[domain.Case]{}, apperrors.MapError(err)
	}
	return newListResult(cases, total, filter.Page), nil
}

// Get loads a case, hiding it from callers outside its scope.
func (s *CaseService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Case, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": id})
	}
	if !canViewCase(actor, c) {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": id})
	}
	return c, nil
}

// UpdateStatus moves a case through its lifecycle.
func (s *CaseService) UpdateStatus(ctx context.Context, actor *domain.User, id string, status domain.CaseStatus, reason string) (*domain.Case, error) {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.canWork(actor, c) {
		return nil, apperrors.NewForbidden("not allowed to change this case")
	}
	if c.Status == status {
		return c, nil
	}
	if !CanTransition(c.Status, status) {
		return nil, apperrors.NewInvalidTransition("case", c.Status, status)
	}
	switch status {
	case domain.CaseStatusAssigned:
		if c.CoordinatorID == nil {
			return nil, apperrors.NewValidationError("case has no coordinator", nil)
		}
	case domain.CaseStatusInProgress:
		if c.LawyerID == nil {
			return nil, apperrors.NewValidationError("assign a lawyer before starting work", nil)
		}
	}

	old := c.Status
	var closedAt *time.Time
	if status == domain.CaseStatusClosed {
		now := s.now().UTC()
		closedAt = &now
	}
	updatedAt, err := s.cases.UpdateStatus(ctx, c.ID, old, status, closedAt)
	if err != nil {
		return nil, writeError(err, "case", "case_id", id)
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	if closedAt != nil {
		c.ClosedAt = closedAt
	}
	switch status {
	case domain.CaseStatusInProgress, domain.CaseStatusRejected, domain.CaseStatusClosed:
		if err := s.assignments.CompletePending(ctx, c.ID); err != nil {
			s.logger.Warn("completing coordinator assignment", zap.String("case_id", c.ID), zap.Error(err))
		}
	}

	newValue := map[string]any{"status": status}
	if reason = strings.TrimSpace(reason); reason != "" {
		newValue["reason"] = reason
	}
	s.recordHistory(ctx, c.ID, actor.ID, domain.ChangeTypeStatus, map[string]any{"status": old}, newValue)
	s.events.publish(ctx, events.New(events.EventCaseStatusChanged, c.ID, &actor.ID, events.CaseStatusChangedPayload{
		CaseNumber:    c.CaseNumber,
		ClientID:      c.ClientID,
		CoordinatorID: c.CoordinatorID,
		LawyerID:      c.LawyerID,
		OldStatus:     old,
		NewStatus:     status,
		Reason:        reason,
	}))
	return c, nil
}

// UpdatePriority changes case urgency. Office coordinators and admins only.
func (s *CaseService) UpdatePriority(ctx context.Context, actor *domain.User, id string, priority domain.CasePriority) (*domain.Case, error) {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canManageCase(actor, c) {
		return nil, apperrors.NewForbidden("not allowed to change this case")
	}
	if c.IsTerminal() {
		return nil, apperrors.NewConflict("case is closed", map[string]any{"status": c.Status})
	}
	if c.Priority == priority {
		return c, nil
	}
	old := c.Priority
	updatedAt, err := s.cases.UpdatePriority(ctx, c.ID, priority)
	if err != nil {
		return nil, writeError(err, "case", "case_id", id)
	}
	c.Priority = priority
	c.UpdatedAt = updatedAt
	s.recordHistory(ctx, c.ID, actor.ID, domain.ChangeTypePriority,
		map[string]any{"priority": old}, map[string]any{"priority": priority})
	return c, nil
}

// AssignLawyer attaches a lawyer from the case's office.
func (s *CaseService) AssignLawyer(ctx context.Context, actor *domain.User, id, lawyerID string) (*domain.Case, error) {
	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canManageCase(actor, c) {
		return nil, apperrors.NewForbidden("only the office coordinator or an administrator can assign lawyers")
	}
	if c.IsTerminal() {
		return nil, apperrors.NewConflict("case is closed", map[string]any{"status": c.Status})
	}
	if c.LawyerID != nil && *c.LawyerID == lawyerID {
		return c, nil
	}
	lawyer, err := s.users.GetByID(ctx, lawyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown lawyer", map[string]any{"lawyer_id": lawyerID})
		}
		return nil, apperrors.MapError(err)
	}
	if lawyer.Role != domain.BaseRoleLawyer || !lawyer.Active() {
		return nil, apperrors.NewValidationError("user is not an active lawyer", map[string]any{"lawyer_id": lawyerID})
	}
	if !lawyer.InOffice(c.OfficeID) {
		return nil, apperrors.NewValidationError("lawyer belongs to another office", map[string]any{"lawyer_id": lawyerID})
	}

	previous := c.LawyerID
	updatedAt, err := s.cases.SetLawyer(ctx, c.ID, previous, lawyer.ID)
	if err != nil {
		return nil, writeError(err, "case", "case_id", id)
	}
	c.LawyerID = &lawyer.ID
	c.UpdatedAt = updatedAt
	s.recordHistory(ctx, c.ID, actor.ID, domain.ChangeTypeLawyer,
		map[string]any{"lawyer_id": previous}, map[string]any{"lawyer_id": lawyer.ID})
	s.events.publish(ctx, events.New(events.EventCaseLawyerAssigned, c.ID, &actor.ID, events.CaseLawyerAssignedPayload{
		CaseNumber:       c.CaseNumber,
		ClientID:         c.ClientID,
		LawyerID:         lawyer.ID,
		PreviousLawyerID: previous,
	}))
	return c, nil
}

// ReassignCoordinator hands the case to another coordinator of its office.
func (s *CaseService) ReassignCoordinator(ctx context.Context, actor *domain.User, id, coordinatorID string) (*domain.Case, error) {
	if s.assigner == nil {
		return nil, apperrors.NewUnavailable("assignment is not configured", nil)
	}
	return s.assigner.Reassign(ctx, actor, id, coordinatorID)
}

// AddNote appends a comment. Clients may only write public notes.
func (s *CaseService) AddNote(ctx context.Context, actor *domain.User, caseID, body string, visibility domain.NoteVisibility) (*domain.CaseNote, error) {
	c, err := s.Get(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	if visibility == "" {
		visibility = domain.NoteVisibilityPublic
	}
	if visibility != domain.NoteVisibilityPublic && visibility != domain.NoteVisibilityInternal {
		return nil, apperrors.NewValidationError("invalid visibility", map[string]any{"visibility": visibility})
	}
	if actor.Role == domain.BaseRoleClient && visibility == domain.NoteVisibilityInternal {
		return nil, apperrors.NewForbidden("clients cannot write internal notes")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("note body is required", map[string]any{"body": "required"})
	}
	note := &domain.CaseNote{
		CaseID:     c.ID,
		AuthorID:   actor.ID,
		Visibility: visibility,
		Body:       body,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	return note, nil
}

// ListNotes returns the notes actor may read.
func (s *CaseService) ListNotes(ctx context.Context, actor *domain.User, caseID string) ([]domain.CaseNote, error) {
	c, err := s.Get(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByCase(ctx, c.ID, actor.Role != domain.BaseRoleClient)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

func (s *CaseService) ListHistory(ctx context.Context, actor *domain.User, caseID string) ([]domain.CaseHistory, error) {
	c, err := s.Get(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

func (s *CaseService) ListAssignments(ctx context.Context, actor *domain.User, caseID string) ([]domain.CaseAssignment, error) {
	c, err := s.Get(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.BaseRoleClient {
		return nil, apperrors.NewForbidden("assignment history is staff only")
	}
	rows, err := s.assignments.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

// canWork reports whether actor may progress the case: its lawyer, its office coordinator, or an admin.
func (s *CaseService) canWork(actor *domain.User, c *domain.Case) bool {
	if canManageCase(actor, c) {
		return true
	}
	return actor.Role == domain.BaseRoleLawyer && c.LawyerID != nil && *c.LawyerID == actor.ID
}

func (s *CaseService) recordHistory(ctx context.Context, caseID, actorID string, kind domain.CaseChangeType, oldValue, newValue map[string]any) {
	entry := &domain.CaseHistory{
		CaseID:      caseID,
		ChangedByID: &actorID,
		ChangeType:  kind,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("recording case history", zap.String("case_id", caseID), zap.Error(err))
	}
}

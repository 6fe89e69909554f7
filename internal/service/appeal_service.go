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

// AppealService manages appeals against case outcomes.
type AppealService struct {
	appeals repository.AppealRepository
	cases   repository.CaseRepository
	events  publisher
	now     func() time.Time
}

// AppealDependencies bundles collaborators.
type AppealDependencies struct {
	AppealRepo repository.AppealRepository
	CaseRepo   repository.CaseRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// FileAppealInput is the lawyer's appeal payload.
type FileAppealInput struct {
	CaseID  string
	Title   string
	Grounds string
	Court   string
}

// NewAppealService constructs the service.
func NewAppealService(deps AppealDependencies) *AppealService {
	return &AppealService{
		appeals: deps.AppealRepo,
		cases:   deps.CaseRepo,
		events:  newPublisher(deps.Dispatcher, deps.Logger),
		now:     time.Now,
	}
}

// File opens an appeal. Only the case's lawyer may file, and only once the case is resolved or closed.
func (s *AppealService) File(ctx context.Context, actor *domain.User, input FileAppealInput) (*domain.Appeal, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.cases.GetByID(ctx, input.CaseID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": input.CaseID})
	}
	if actor.Role != domain.BaseRoleLawyer || c.LawyerID == nil || *c.LawyerID != actor.ID {
		return nil, apperrors.NewForbidden("only the case lawyer can file an appeal")
	}
	if c.Status != domain.CaseStatusResolved && c.Status != domain.CaseStatusClosed {
		return nil, apperrors.NewConflict("appeals require a resolved or closed case", map[string]any{"status": c.Status})
	}
	_, open, err := s.appeals.List(ctx, repository.AppealFilter{
		CaseID:   &c.ID,
		Statuses: []domain.AppealStatus{domain.AppealStatusPending, domain.AppealStatusScheduled},
		Page:     repository.Page{Limit: 1},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if open > 0 {
		return nil, apperrors.NewConflict("case already has an open appeal", map[string]any{"case_id": c.ID})
	}

	appeal := &domain.Appeal{
		CaseID:   c.ID,
		LawyerID: actor.ID,
		Title:    strings.TrimSpace(input.Title),
		Grounds:  strings.TrimSpace(input.Grounds),
		Court:    strings.TrimSpace(input.Court),
		Status:   domain.AppealStatusPending,
	}
	if err := s.appeals.Create(ctx, appeal); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor, appeal, c)
	return appeal, nil
}

// ScheduleHearing sets or moves the hearing date of an open appeal.
func (s *AppealService) ScheduleHearing(ctx context.Context, actor *domain.User, id string, hearing time.Time) (*domain.Appeal, error) {
	appeal, c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appeal.LawyerID != actor.ID && !canManageCase(actor, c) {
		return nil, apperrors.NewForbidden("not allowed to schedule this appeal")
	}
	if !appeal.IsOpen() {
		return nil, apperrors.NewInvalidTransition("appeal", appeal.Status, domain.AppealStatusScheduled)
	}
	if !hearing.After(s.now()) {
		return nil, apperrors.NewValidationError("hearing date must be in the future", map[string]any{"hearing_date": hearing})
	}
	hearing = hearing.UTC()
	from := appeal.Status
	appeal.HearingDate = &hearing
	appeal.Status = domain.AppealStatusScheduled
	if err := s.appeals.Update(ctx, appeal, from); err != nil {
		return nil, writeError(err, "appeal", "appeal_id", id)
	}
	s.publish(ctx, actor, appeal, c)
	return appeal, nil
}

// Decide records the outcome. Office coordinators and admins only.
func (s *AppealService) Decide(ctx context.Context, actor *domain.User, id string, outcome domain.AppealStatus, decision string) (*domain.Appeal, error) {
	if outcome != domain.AppealStatusGranted && outcome != domain.AppealStatusDenied {
		return nil, apperrors.NewValidationError("outcome must be GRANTED or DENIED", map[string]any{"status": outcome})
	}
	appeal, c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canManageCase(actor, c) {
		return nil, apperrors.NewForbidden("only the office coordinator or an administrator can decide appeals")
	}
	if !appeal.IsOpen() {
		return nil, apperrors.NewInvalidTransition("appeal", appeal.Status, outcome)
	}
	now := s.now().UTC()
	from := appeal.Status
	appeal.Status = outcome
	appeal.Decision = strings.TrimSpace(decision)
	appeal.DecidedAt = &now
	if err := s.appeals.Update(ctx, appeal, from); err != nil {
		return nil, writeError(err, "appeal", "appeal_id", id)
	}
	s.publish(ctx, actor, appeal, c)
	return appeal, nil
}

// Withdraw lets the filing lawyer drop an open appeal.
func (s *AppealService) Withdraw(ctx context.Context, actor *domain.User, id string) (*domain.Appeal, error) {
	appeal, c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appeal.LawyerID != actor.ID {
		return nil, apperrors.NewForbidden("only the filing lawyer can withdraw an appeal")
	}
	if !appeal.IsOpen() {
		return nil, apperrors.NewInvalidTransition("appeal", appeal.Status, domain.AppealStatusWithdrawn)
	}
	from := appeal.Status
	appeal.Status = domain.AppealStatusWithdrawn
	if err := s.appeals.Update(ctx, appeal, from); err != nil {
		return nil, writeError(err, "appeal", "appeal_id", id)
	}
	s.publish(ctx, actor, appeal, c)
	return appeal, nil
}

func (s *AppealService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Appeal, error) {
	appeal, _, err := s.load(ctx, actor, id)
	return appeal, err
}

// List returns appeals on cases actor may see.
func (s *AppealService) List(ctx context.Context, actor *domain.User, filter repository.AppealFilter) (ListResult[domain.Appeal], error) {
	if err := requireActor(actor); err != nil {
		return ListResult[domain.Appeal]{}, err
	}
	scope := repository.CaseFilter{}
	if err := applyCaseScope(actor, &scope); err != nil {
		return ListResult[domain.Appeal]{}, err
	}
	filter.ClientID = scope.ClientID
	filter.LawyerID = scope.LawyerID
	filter.OfficeID = scope.OfficeID
	filter.Kebele = scope.Kebele

	appeals, total, err := s.appeals.List(ctx, filter)
	if err != nil {
		return ListResult[domain.Appeal]{}, apperrors.MapError(err)
	}
	return newListResult(appeals, total, filter.Page), nil
}

func (s *AppealService) load(ctx context.Context, actor *domain.User, id string) (*domain.Appeal, *domain.Case, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	appeal, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NotFoundOr(err, "appeal", map[string]any{"appeal_id": id})
	}
	c, err := s.cases.GetByID(ctx, appeal.CaseID)
	if err != nil {
		return nil, nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": appeal.CaseID})
	}
	if appeal.LawyerID != actor.ID && !canViewCase(actor, c) {
		return nil, nil, apperrors.NewNotFound("appeal", map[string]any{"appeal_id": id})
	}
	return appeal, c, nil
}

func (s *AppealService) publish(ctx context.Context, actor *domain.User, appeal *domain.Appeal, c *domain.Case) {
	s.events.publish(ctx, events.New(events.EventAppealUpdated, appeal.ID, &actor.ID, events.AppealUpdatedPayload{
		CaseID:      c.ID,
		ClientID:    c.ClientID,
		LawyerID:    appeal.LawyerID,
		Title:       appeal.Title,
		Status:      appeal.Status,
		HearingDate: appeal.HearingDate,
	}))
}

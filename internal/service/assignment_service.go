package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// ErrNoCoordinatorAvailable means the office has no active coordinator to take a case.
var ErrNoCoordinatorAvailable = errors.New("no coordinator available in office")

// Locker provides mutual exclusion across service instances. The returned
// function releases the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// NoopLocker grants every lock immediately. Used when Redis is not configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// AssignmentService routes cases to coordinators.
type AssignmentService struct {
	cases       repository.CaseRepository
	users       repository.UserRepository
	assignments repository.CaseAssignmentRepository
	locker      Locker
	lockTTL     time.Duration
	logger      *zap.Logger
	events      publisher
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	CaseRepo       repository.CaseRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.CaseAssignmentRepository
	Locker         Locker
	LockTTL        time.Duration
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = NoopLocker{}
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &AssignmentService{
		cases:       deps.CaseRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		locker:      locker,
		lockTTL:     ttl,
		logger:      logger,
		events:      newPublisher(deps.Dispatcher, logger),
	}
}

// AutoAssign hands c to the least-loaded coordinator of its office. Selection
// and insert run under a per-office lock so concurrent registrations see each
// other's assignments. c is updated in place on success.
func (s *AssignmentService) AutoAssign(ctx context.Context, c *domain.Case, actorID *string) (*domain.CaseAssignment, error) {
	release, err := s.lockOffice(ctx, c.OfficeID)
	if err != nil {
		return nil, err
	}
	defer s.unlock(release, c.OfficeID)

	workloads, err := s.assignments.CoordinatorWorkloads(ctx, &c.OfficeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	pick := pickLeastLoaded(workloads, "")
	if pick == nil {
		s.logger.Warn("no coordinator available, case left pending",
			zap.String("case_id", c.ID), zap.String("office_id", c.OfficeID))
		return nil, ErrNoCoordinatorAvailable
	}
	return s.assign(ctx, c, pick.CoordinatorID, actorID)
}

// Reassign moves a case to a named coordinator of the same office.
func (s *AssignmentService) Reassign(ctx context.Context, actor *domain.User, caseID, coordinatorID string) (*domain.Case, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != domain.BaseRoleAdmin {
		return nil, apperrors.NewForbidden("only administrators can reassign coordinators")
	}
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "case", map[string]any{"case_id": caseID})
	}
	if c.IsTerminal() {
		return nil, apperrors.NewConflict("case is closed", map[string]any{"status": c.Status})
	}
	if c.CoordinatorID != nil && *c.CoordinatorID == coordinatorID {
		return nil, apperrors.NewConflict("case already assigned to this coordinator", nil)
	}
	coordinator, err := s.users.GetByID(ctx, coordinatorID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "coordinator", map[string]any{"coordinator_id": coordinatorID})
	}
	if coordinator.Role != domain.BaseRoleCoordinator || !coordinator.Active() {
		return nil, apperrors.NewValidationError("user is not an active coordinator", map[string]any{"coordinator_id": coordinatorID})
	}
	if !coordinator.InOffice(c.OfficeID) {
		return nil, apperrors.NewValidationError("coordinator belongs to another office", map[string]any{"coordinator_id": coordinatorID})
	}

	release, err := s.lockOffice(ctx, c.OfficeID)
	if err != nil {
		return nil, err
	}
	defer s.unlock(release, c.OfficeID)

	if _, err := s.assign(ctx, c, coordinatorID, &actor.ID); err != nil {
		return nil, err
	}
	return c, nil
}

// Workloads lists coordinators with their pending counts. A nil officeID covers all offices.
func (s *AssignmentService) Workloads(ctx context.Context, officeID *string) ([]domain.CoordinatorWorkload, error) {
	workloads, err := s.assignments.CoordinatorWorkloads(ctx, officeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return workloads, nil
}

func (s *AssignmentService) assign(ctx context.Context, c *domain.Case, coordinatorID string, actorID *string) (*domain.CaseAssignment, error) {
	previous := c.CoordinatorID
	params := repository.AssignCoordinatorParams{
		CaseID:        c.ID,
		OfficeID:      c.OfficeID,
		CoordinatorID: coordinatorID,
		ActorID:       actorID,
	}
	if c.Status == domain.CaseStatusPending {
		assigned := domain.CaseStatusAssigned
		params.NewStatus = &assigned
	}
	assignment, err := s.assignments.Assign(ctx, params)
	if err != nil {
		return nil, writeError(err, "case", "case_id", c.ID)
	}
	c.CoordinatorID = strPtr(coordinatorID)
	if params.NewStatus != nil {
		c.Status = *params.NewStatus
	}
	s.events.publish(ctx, events.New(events.EventCaseAssigned, c.ID, actorID, events.CaseAssignedPayload{
		CaseNumber:            c.CaseNumber,
		ClientID:              c.ClientID,
		CoordinatorID:         coordinatorID,
		PreviousCoordinatorID: previous,
	}))
	return assignment, nil
}

// lockOffice waits for the office lock until ctx ends. lockTTL bounds how long
// a crashed holder can keep it.
func (s *AssignmentService) lockOffice(ctx context.Context, officeID string) (func(context.Context) error, error) {
	release, err := s.locker.Acquire(ctx, "assign:office:"+officeID, s.lockTTL)
	if err != nil {
		return nil, apperrors.NewUnavailable("assignment lock unavailable", err)
	}
	return release, nil
}

func (s *AssignmentService) unlock(release func(context.Context) error, officeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.logger.Warn("releasing assignment lock", zap.String("office_id", officeID), zap.Error(err))
	}
}

// pickLeastLoaded returns the coordinator with the fewest pending assignments,
// breaking ties by earliest join date and then lowest id. exclude is skipped.
func pickLeastLoaded(workloads []domain.CoordinatorWorkload, exclude string) *domain.CoordinatorWorkload {
	var best *domain.CoordinatorWorkload
	for i := range workloads {
		w := &workloads[i]
		if w.CoordinatorID == exclude {
			continue
		}
		if best == nil || lessLoaded(w, best) {
			best = w
		}
	}
	return best
}

func lessLoaded(a, b *domain.CoordinatorWorkload) bool {
	if a.Pending != b.Pending {
		return a.Pending < b.Pending
	}
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.CoordinatorID < b.CoordinatorID
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

var appointmentTransitions = map[domain.AppointmentStatus][]domain.AppointmentStatus{
	domain.AppointmentStatusScheduled: {domain.AppointmentStatusConfirmed, domain.AppointmentStatusCompleted, domain.AppointmentStatusCancelled},
	domain.AppointmentStatusConfirmed: {domain.AppointmentStatusCompleted, domain.AppointmentStatusCancelled},
}

// AppointmentService schedules meetings between clients and staff.
type AppointmentService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	cases        repository.CaseRepository
	locker       Locker
	lockTTL      time.Duration
	window       time.Duration
	logger       *zap.Logger
	events       publisher
	now          func() time.Time
}

// AppointmentDependencies bundles collaborators.
type AppointmentDependencies struct {
	AppointmentRepo repository.AppointmentRepository
	UserRepo        repository.UserRepository
	CaseRepo        repository.CaseRepository
	Locker          Locker
	LockTTL         time.Duration
	ReminderWindow  time.Duration
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// ScheduleInput describes a new appointment. Empty ClientID or StaffID default to the caller where the role allows.
type ScheduleInput struct {
	ClientID string
	StaffID  string
	CaseID   *string
	StartsAt time.Time
	EndsAt   time.Time
	Location string
	Purpose  string
}

// NewAppointmentService constructs the service.
func NewAppointmentService(deps AppointmentDependencies) *AppointmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	window := deps.ReminderWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	locker := deps.Locker
	if locker == nil {
		locker = NoopLocker{}
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &AppointmentService{
		appointments: deps.AppointmentRepo,
		users:        deps.UserRepo,
		cases:        deps.CaseRepo,
		locker:       locker,
		lockTTL:      ttl,
		window:       window,
		logger:       logger,
		events:       newPublisher(deps.Dispatcher, logger),
		now:          time.Now,
	}
}

// Schedule books an appointment after checking the window and the staff member's calendar.
func (s *AppointmentService) Schedule(ctx context.Context, actor *domain.User, input ScheduleInput) (*domain.Appointment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.BaseRoleClient:
		input.ClientID = actor.ID
	case domain.BaseRoleLawyer, domain.BaseRoleCoordinator:
		if input.StaffID == "" {
			input.StaffID = actor.ID
		}
	case domain.BaseRoleAdmin:
	default:
		return nil, apperrors.NewForbidden("role cannot schedule appointments")
	}
	if input.ClientID == "" || input.StaffID == "" {
		return nil, apperrors.NewValidationError("client_id and staff_id are required", nil)
	}
	if err := s.checkWindow(input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}
	if _, err := s.participant(ctx, input.ClientID, "client_id", domain.BaseRoleClient); err != nil {
		return nil, err
	}
	if _, err := s.participant(ctx, input.StaffID, "staff_id", domain.BaseRoleLawyer, domain.BaseRoleCoordinator); err != nil {
		return nil, err
	}
	caseID := trimPtr(input.CaseID)
	if caseID != nil {
		c, err := s.cases.GetByID(ctx, *caseID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown case", map[string]any{"case_id": *caseID})
			}
			return nil, apperrors.MapError(err)
		}
		if c.ClientID != input.ClientID {
			return nil, apperrors.NewValidationError("case belongs to another client", map[string]any{"case_id": *caseID})
		}
		if !canViewCase(actor, c) && actor.ID != input.StaffID {
			return nil, apperrors.NewForbidden("not allowed to schedule for this case")
		}
	}
	release, err := s.lockStaff(ctx, input.StaffID)
	if err != nil {
		return nil, err
	}
	defer s.unlock(release, input.StaffID)
	if err := s.checkOverlap(ctx, input.StaffID, input.StartsAt, input.EndsAt, nil); err != nil {
		return nil, err
	}

	appt := &domain.Appointment{
		CaseID:    caseID,
		ClientID:  input.ClientID,
		StaffID:   input.StaffID,
		StartsAt:  input.StartsAt.UTC(),
		EndsAt:    input.EndsAt.UTC(),
		Location:  strings.TrimSpace(input.Location),
		Purpose:   strings.TrimSpace(input.Purpose),
		Status:    domain.AppointmentStatusScheduled,
		CreatedBy: actor.ID,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventAppointmentUpdated, appt, &actor.ID)
	return appt, nil
}

func (s *AppointmentService) Confirm(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error) {
	return s.transition(ctx, actor, id, domain.AppointmentStatusConfirmed)
}

// Complete marks the meeting as held. Staff side only.
func (s *AppointmentService) Complete(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role == domain.BaseRoleClient {
		return nil, apperrors.NewForbidden("clients cannot complete appointments")
	}
	return s.transition(ctx, actor, id, domain.AppointmentStatusCompleted)
}

func (s *AppointmentService) Cancel(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error) {
	return s.transition(ctx, actor, id, domain.AppointmentStatusCancelled)
}

// Reschedule moves an active appointment to a new window. It returns to SCHEDULED and a new reminder will be sent.
func (s *AppointmentService) Reschedule(ctx context.Context, actor *domain.User, id string, startsAt, endsAt time.Time) (*domain.Appointment, error) {
	appt, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !appt.IsActive() {
		return nil, apperrors.NewInvalidTransition("appointment", appt.Status, domain.AppointmentStatusScheduled)
	}
	if err := s.checkWindow(startsAt, endsAt); err != nil {
		return nil, err
	}
	release, err := s.lockStaff(ctx, appt.StaffID)
	if err != nil {
		return nil, err
	}
	defer s.unlock(release, appt.StaffID)
	if err := s.checkOverlap(ctx, appt.StaffID, startsAt, endsAt, &appt.ID); err != nil {
		return nil, err
	}
	from := appt.Status
	appt.StartsAt = startsAt.UTC()
	appt.EndsAt = endsAt.UTC()
	appt.Status = domain.AppointmentStatusScheduled
	appt.ReminderSentAt = nil
	if err := s.appointments.Update(ctx, appt, from); err != nil {
		return nil, writeError(err, "appointment", "appointment_id", id)
	}
	s.publish(ctx, events.EventAppointmentUpdated, appt, &actor.ID)
	return appt, nil
}

// Get loads an appointment visible to actor: its participants and admins.
func (s *AppointmentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Appointment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "appointment", map[string]any{"appointment_id": id})
	}
	if actor.Role != domain.BaseRoleAdmin && !appt.Involves(actor.ID) {
		return nil, apperrors.NewNotFound("appointment", map[string]any{"appointment_id": id})
	}
	return appt, nil
}

// List returns the caller's own appointments; admins see all.
func (s *AppointmentService) List(ctx context.Context, actor *domain.User, filter repository.AppointmentFilter) (ListResult[domain.Appointment], error) {
	if err := requireActor(actor); err != nil {
		return ListResult[domain.Appointment]{}, err
	}
	if actor.Role != domain.BaseRoleAdmin {
		filter.ParticipantID = &actor.ID
	}
	appts, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return ListResult[domain.Appointment]{}, apperrors.MapError(err)
	}
	return newListResult(appts, total, filter.Page), nil
}

// SendDueReminders stamps appointments starting within the reminder window and
// notifies their participants. Only the caller whose stamp lands publishes, so
// each appointment is reminded once across replicas.
func (s *AppointmentService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.appointments.DueForReminder(ctx, now, now.Add(s.window))
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	sent := 0
	for i := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		appt := &due[i]
		stamped, err := s.appointments.MarkReminderSent(ctx, appt.ID, now)
		if err != nil {
			s.logger.Warn("stamping appointment reminder", zap.String("appointment_id", appt.ID), zap.Error(err))
			continue
		}
		if !stamped {
			continue
		}
		appt.ReminderSentAt = &now
		s.publish(ctx, events.EventAppointmentReminder, appt, nil)
		sent++
	}
	return sent, nil
}

func (s *AppointmentService) transition(ctx context.Context, actor *domain.User, id string, to domain.AppointmentStatus) (*domain.Appointment, error) {
	appt, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range appointmentTransitions[appt.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperrors.NewInvalidTransition("appointment", appt.Status, to)
	}
	from := appt.Status
	appt.Status = to
	if err := s.appointments.Update(ctx, appt, from); err != nil {
		return nil, writeError(err, "appointment", "appointment_id", id)
	}
	s.publish(ctx, events.EventAppointmentUpdated, appt, &actor.ID)
	return appt, nil
}

func (s *AppointmentService) checkWindow(startsAt, endsAt time.Time) error {
	if startsAt.IsZero() || endsAt.IsZero() {
		return apperrors.NewValidationError("starts_at and ends_at are required", nil)
	}
	if !endsAt.After(startsAt) {
		return apperrors.NewValidationError("ends_at must be after starts_at", map[string]any{"ends_at": endsAt})
	}
	if !startsAt.After(s.now()) {
		return apperrors.NewValidationError("starts_at must be in the future", map[string]any{"starts_at": startsAt})
	}
	return nil
}

func (s *AppointmentService) checkOverlap(ctx context.Context, staffID string, startsAt, endsAt time.Time, excludeID *string) error {
	overlap, err := s.appointments.HasOverlap(ctx, staffID, startsAt.UTC(), endsAt.UTC(), excludeID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if overlap {
		return apperrors.NewConflict("staff member already has an appointment in this window", map[string]any{"staff_id": staffID})
	}
	return nil
}

// lockStaff serializes calendar writes for one staff member so the overlap
// check and the write see the same calendar.
func (s *AppointmentService) lockStaff(ctx context.Context, staffID string) (func(context.Context) error, error) {
	release, err := s.locker.Acquire(ctx, "appt:staff:"+staffID, s.lockTTL)
	if err != nil {
		return nil, apperrors.NewUnavailable("appointment lock unavailable", err)
	}
	return release, nil
}

func (s *AppointmentService) unlock(release func(context.Context) error, staffID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.logger.Warn("releasing appointment lock", zap.String("staff_id", staffID), zap.Error(err))
	}
}

func (s *AppointmentService) participant(ctx context.Context, id, field string, roles ...domain.BaseRole) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown user", map[string]any{field: id})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active() {
		return nil, apperrors.NewValidationError("user is not active", map[string]any{field: id})
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, apperrors.NewValidationError("user has the wrong role", map[string]any{field: id})
}

func (s *AppointmentService) publish(ctx context.Context, kind events.EventType, appt *domain.Appointment, actorID *string) {
	s.events.publish(ctx, events.New(kind, appt.ID, actorID, events.AppointmentUpdatedPayload{
		ClientID: appt.ClientID,
		StaffID:  appt.StaffID,
		Status:   appt.Status,
		StartsAt: appt.StartsAt,
		Location: appt.Location,
	}))
}

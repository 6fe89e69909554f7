package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/persistence"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

var apptNow = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

func newAppointmentService(dispatcher events.Dispatcher) (*AppointmentService, *MockAppointmentRepository, *MockUserRepository) {
	appts := new(MockAppointmentRepository)
	users := new(MockUserRepository)
	svc := NewAppointmentService(AppointmentDependencies{
		AppointmentRepo: appts,
		UserRepo:        users,
		CaseRepo:        new(MockCaseRepository),
		ReminderWindow:  time.Hour,
		Dispatcher:      dispatcher,
	})
	svc.now = func() time.Time { return apptNow }
	return svc, appts, users
}

func TestAppointmentService_Schedule(t *testing.T) {
	lawyer := &domain.User{ID: "lawyer-1", Role: domain.BaseRoleLawyer, Status: domain.UserStatusActive}
	client := &domain.User{ID: "client-1", Role: domain.BaseRoleClient, Status: domain.UserStatusActive}
	start := apptNow.Add(2 * time.Hour)
	end := start.Add(time.Hour)

	t.Run("lawyer books with client", func(t *testing.T) {
		svc, appts, users := newAppointmentService(nil)
		users.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		users.On("GetByID", mock.Anything, "lawyer-1").Return(lawyer, nil)
		appts.On("HasOverlap", mock.Anything, "lawyer-1", start, end, (*string)(nil)).Return(false, nil)
		appts.On("Create", mock.Anything, mock.Anything).Return(nil)

		appt, err := svc.Schedule(context.Background(), lawyer, ScheduleInput{ClientID: "client-1", StartsAt: start, EndsAt: end, Location: " Office 3 "})
		require.NoError(t, err)
		assert.Equal(t, "lawyer-1", appt.StaffID)
		assert.Equal(t, "Office 3", appt.Location)
		assert.Equal(t, domain.AppointmentStatusScheduled, appt.Status)
	})

	t.Run("overlap rejected", func(t *testing.T) {
		svc, appts, users := newAppointmentService(nil)
		users.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		users.On("GetByID", mock.Anything, "lawyer-1").Return(lawyer, nil)
		appts.On("HasOverlap", mock.Anything, "lawyer-1", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		_, err := svc.Schedule(context.Background(), client, ScheduleInput{StaffID: "lawyer-1", StartsAt: start, EndsAt: end})
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
		appts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("window checks", func(t *testing.T) {
		svc, _, _ := newAppointmentService(nil)
		_, err := svc.Schedule(context.Background(), lawyer, ScheduleInput{ClientID: "client-1", StartsAt: end, EndsAt: start})
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

		past := apptNow.Add(-time.Hour)
		_, err = svc.Schedule(context.Background(), lawyer, ScheduleInput{ClientID: "client-1", StartsAt: past, EndsAt: past.Add(time.Minute)})
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("overlap check and insert hold the staff lock", func(t *testing.T) {
		appts := new(MockAppointmentRepository)
		users := new(MockUserRepository)
		locker := new(MockLocker)
		svc := NewAppointmentService(AppointmentDependencies{
			AppointmentRepo: appts,
			UserRepo:        users,
			CaseRepo:        new(MockCaseRepository),
			Locker:          locker,
			LockTTL:         time.Second,
		})
		svc.now = func() time.Time { return apptNow }

		var steps []string
		locker.On("Acquire", mock.Anything, "appt:staff:lawyer-1", time.Second).Run(func(mock.Arguments) {
			steps = append(steps, "lock")
		}).Return(func(context.Context) error {
			steps = append(steps, "unlock")
			return nil
		}, nil)
		users.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		users.On("GetByID", mock.Anything, "lawyer-1").Return(lawyer, nil)
		appts.On("HasOverlap", mock.Anything, "lawyer-1", start, end, (*string)(nil)).Run(func(mock.Arguments) {
			steps = append(steps, "check")
		}).Return(false, nil)
		appts.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			steps = append(steps, "insert")
		}).Return(nil)

		_, err := svc.Schedule(context.Background(), lawyer, ScheduleInput{ClientID: "client-1", StartsAt: start, EndsAt: end})
		require.NoError(t, err)
		assert.Equal(t, []string{"lock", "check", "insert", "unlock"}, steps)
	})

	t.Run("lock unavailable", func(t *testing.T) {
		appts := new(MockAppointmentRepository)
		users := new(MockUserRepository)
		locker := new(MockLocker)
		svc := NewAppointmentService(AppointmentDependencies{AppointmentRepo: appts, UserRepo: users, CaseRepo: new(MockCaseRepository), Locker: locker})
		svc.now = func() time.Time { return apptNow }
		users.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		users.On("GetByID", mock.Anything, "lawyer-1").Return(lawyer, nil)
		locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

		_, err := svc.Schedule(context.Background(), lawyer, ScheduleInput{ClientID: "client-1", StartsAt: start, EndsAt: end})
		assert.Equal(t, "SERVICE_UNAVAILABLE", apperrors.ToDomainError(err).Code)
		appts.AssertNotCalled(t, "HasOverlap", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("staff must be lawyer or coordinator", func(t *testing.T) {
		svc, _, users := newAppointmentService(nil)
		users.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		users.On("GetByID", mock.Anything, "km").Return(&domain.User{ID: "km", Role: domain.BaseRoleKebeleManager, Status: domain.UserStatusActive}, nil)

		_, err := svc.Schedule(context.Background(), client, ScheduleInput{StaffID: "km", StartsAt: start, EndsAt: end})
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})
}

func TestAppointmentService_Transitions(t *testing.T) {
	client := &domain.User{ID: "client-1", Role: domain.BaseRoleClient}
	newAppt := func(status domain.AppointmentStatus) *domain.Appointment {
		return &domain.Appointment{ID: "a1", ClientID: "client-1", StaffID: "lawyer-1", Status: status, StartsAt: apptNow.Add(time.Hour)}
	}

	t.Run("cancelled cannot be confirmed", func(t *testing.T) {
		svc, appts, _ := newAppointmentService(nil)
		appts.On("GetByID", mock.Anything, "a1").Return(newAppt(domain.AppointmentStatusCancelled), nil)
		_, err := svc.Confirm(context.Background(), client, "a1")
		assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
	})

	t.Run("client cannot complete", func(t *testing.T) {
		svc, _, _ := newAppointmentService(nil)
		_, err := svc.Complete(context.Background(), client, "a1")
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("outsider gets not found", func(t *testing.T) {
		svc, appts, _ := newAppointmentService(nil)
		appts.On("GetByID", mock.Anything, "a1").Return(newAppt(domain.AppointmentStatusScheduled), nil)
		_, err := svc.Cancel(context.Background(), &domain.User{ID: "x", Role: domain.BaseRoleClient}, "a1")
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("reschedule clears reminder", func(t *testing.T) {
		svc, appts, _ := newAppointmentService(nil)
		sent := apptNow
		appt := newAppt(domain.AppointmentStatusConfirmed)
		appt.ReminderSentAt = &sent
		appts.On("GetByID", mock.Anything, "a1").Return(appt, nil)
		appts.On("HasOverlap", mock.Anything, "lawyer-1", mock.Anything, mock.Anything, mock.MatchedBy(func(id *string) bool {
			return id != nil && *id == "a1"
		})).Return(false, nil)
		appts.On("Update", mock.Anything, appt, domain.AppointmentStatusConfirmed).Return(nil)

		got, err := svc.Reschedule(context.Background(), client, "a1", apptNow.Add(48*time.Hour), apptNow.Add(49*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, domain.AppointmentStatusScheduled, got.Status)
		assert.Nil(t, got.ReminderSentAt)
	})
}

func TestAppointmentService_TransitionRacingAnotherWriteConflicts(t *testing.T) {
	client := &domain.User{ID: "client-1", Role: domain.BaseRoleClient}
	svc, appts, _ := newAppointmentService(nil)
	appt := &domain.Appointment{ID: "a1", ClientID: "client-1", StaffID: "lawyer-1", Status: domain.AppointmentStatusScheduled}
	appts.On("GetByID", mock.Anything, "a1").Return(appt, nil)
	appts.On("Update", mock.Anything, appt, domain.AppointmentStatusScheduled).Return(repository.ErrStaleRow)

	_, err := svc.Confirm(context.Background(), client, "a1")
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, 409, de.HTTPStatus)
}

// memoryAppointments keeps a calendar in memory and widens the gap between
// the overlap check and the insert so unserialized bookings would collide.
type memoryAppointments struct {
	repository.AppointmentRepository
	mu    sync.Mutex
	items []domain.Appointment
}

func (m *memoryAppointments) HasOverlap(_ context.Context, staffID string, startsAt, endsAt time.Time, excludeID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.StaffID == staffID && a.IsActive() && a.StartsAt.Before(endsAt) && a.EndsAt.After(startsAt) {
			if excludeID == nil || *excludeID != a.ID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memoryAppointments) Create(_ context.Context, appt *domain.Appointment) error {
	time.Sleep(5 * time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	appt.ID = fmt.Sprintf("a%d", len(m.items)+1)
	m.items = append(m.items, *appt)
	return nil
}

func TestAppointmentService_ConcurrentBookingsKeepCalendarFree(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lawyer := &domain.User{ID: "lawyer-1", Role: domain.BaseRoleLawyer, Status: domain.UserStatusActive}
	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, "lawyer-1").Return(lawyer, nil)
	users.On("GetByID", mock.Anything, mock.Anything).Return(&domain.User{Role: domain.BaseRoleClient, Status: domain.UserStatusActive}, nil)

	repo := &memoryAppointments{}
	svc := NewAppointmentService(AppointmentDependencies{
		AppointmentRepo: repo,
		UserRepo:        users,
		CaseRepo:        new(MockCaseRepository),
		Locker:          persistence.NewRedisLocker(&persistence.Redis{Client: client}),
		LockTTL:         5 * time.Second,
	})
	svc.now = func() time.Time { return apptNow }

	start := apptNow.Add(2 * time.Hour)
	const bookings = 6
	var wg sync.WaitGroup
	errs := make(chan error, bookings)
	for i := 0; i < bookings; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Schedule(context.Background(), lawyer, ScheduleInput{
				ClientID: fmt.Sprintf("client-%d", i),
				StartsAt: start,
				EndsAt:   start.Add(time.Hour),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	conflicts := 0
	for err := range errs {
		if err != nil {
			require.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
			conflicts++
		}
	}
	assert.Equal(t, bookings-1, conflicts)
	assert.Len(t, repo.items, 1)
}

func TestAppointmentService_List_ScopesToParticipant(t *testing.T) {
	svc, appts, _ := newAppointmentService(nil)
	appts.On("List", mock.Anything, mock.MatchedBy(func(f repository.AppointmentFilter) bool {
		return f.ParticipantID != nil && *f.ParticipantID == "client-1"
	})).Return([]domain.Appointment{}, 0, nil)

	_, err := svc.List(context.Background(), &domain.User{ID: "client-1", Role: domain.BaseRoleClient}, repository.AppointmentFilter{})
	require.NoError(t, err)
	appts.AssertExpectations(t)
}

func TestAppointmentService_SendDueReminders(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var reminders []events.Event
	dispatcher.Subscribe(events.EventAppointmentReminder, func(_ context.Context, e events.Event) error {
		reminders = append(reminders, e)
		return nil
	})
	svc, appts, _ := newAppointmentService(dispatcher)

	appts.On("DueForReminder", mock.Anything, apptNow, apptNow.Add(time.Hour)).Return([]domain.Appointment{
		{ID: "a1", ClientID: "c1", StaffID: "s1"},
		{ID: "a2", ClientID: "c2", StaffID: "s2"},
		{ID: "a3", ClientID: "c3", StaffID: "s3"},
	}, nil)
	appts.On("MarkReminderSent", mock.Anything, "a1", apptNow).Return(true, nil)
	appts.On("MarkReminderSent", mock.Anything, "a2", apptNow).Return(false, errors.New("db"))
	appts.On("MarkReminderSent", mock.Anything, "a3", apptNow).Return(false, nil)

	sent, err := svc.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, reminders, 1, "only stamped appointments are announced")
	assert.Equal(t, "a1", reminders[0].EntityID)
	assert.Nil(t, reminders[0].ActorID)
}

func TestAppointmentService_SendDueReminders_StampsBeforePublishing(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc, appts, _ := newAppointmentService(dispatcher)

	stamped := false
	dispatcher.Subscribe(events.EventAppointmentReminder, func(_ context.Context, e events.Event) error {
		assert.True(t, stamped, "reminder published before it was stamped")
		return nil
	})
	appts.On("DueForReminder", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Appointment{{ID: "a1"}}, nil)
	appts.On("MarkReminderSent", mock.Anything, "a1", apptNow).Run(func(mock.Arguments) {
		stamped = true
	}).Return(true, nil)

	sent, err := svc.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/persistence"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

func noopRelease(context.Context) error { return nil }

func TestPickLeastLoaded(t *testing.T) {
	early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)

	tests := []struct {
		name      string
		workloads []domain.CoordinatorWorkload
		exclude   string
		want      string
	}{
		{
			name: "fewest pending wins",
			workloads: []domain.CoordinatorWorkload{
				{CoordinatorID: "a", Pending: 3, JoinedAt: early},
				{CoordinatorID: "b", Pending: 1, JoinedAt: late},
			},
			want: "b",
		},
		{
			name: "tie broken by seniority",
			workloads: []domain.CoordinatorWorkload{
				{CoordinatorID: "a", Pending: 2, JoinedAt: late},
				{CoordinatorID: "b", Pending: 2, JoinedAt: early},
			},
			want: "b",
		},
		{
			name: "tie broken by id",
			workloads: []domain.CoordinatorWorkload{
				{CoordinatorID: "c", Pending: 0, JoinedAt: early},
				{CoordinatorID: "a", Pending: 0, JoinedAt: early},
			},
			want: "a",
		},
		{
			name: "excluded coordinator skipped",
			workloads: []domain.CoordinatorWorkload{
				{CoordinatorID: "a", Pending: 0, JoinedAt: early},
				{CoordinatorID: "b", Pending: 5, JoinedAt: early},
			},
			exclude: "a",
			want:    "b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickLeastLoaded(tt.workloads, tt.exclude)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.CoordinatorID)
		})
	}

	assert.Nil(t, pickLeastLoaded(nil, ""))
}

func TestAssignmentService_AutoAssign(t *testing.T) {
	ctx := context.Background()
	office := "office-1"
	assignments := new(MockAssignmentRepository)
	locker := new(MockLocker)
	svc := NewAssignmentService(AssignmentDependencies{AssignmentRepo: assignments, Locker: locker, LockTTL: time.Second})

	c := &domain.Case{ID: "case-1", OfficeID: office, Status: domain.CaseStatusPending}
	locker.On("Acquire", mock.Anything, "assign:office:"+office, time.Second).Return(noopRelease, nil)
	assignments.On("CoordinatorWorkloads", mock.Anything, &office).Return([]domain.CoordinatorWorkload{
		{CoordinatorID: "busy", Pending: 4},
		{CoordinatorID: "idle", Pending: 0},
	}, nil)
	assignments.On("Assign", mock.Anything, mock.MatchedBy(func(p repository.AssignCoordinatorParams) bool {
		return p.CaseID == "case-1" && p.CoordinatorID == "idle" && p.NewStatus != nil && *p.NewStatus == domain.CaseStatusAssigned
	})).Return(&domain.CaseAssignment{ID: "as-1", CoordinatorID: "idle"}, nil)

	assignment, err := svc.AutoAssign(ctx, c, nil)
	require.NoError(t, err)
	assert.Equal(t, "idle", assignment.CoordinatorID)
	assert.Equal(t, domain.CaseStatusAssigned, c.Status)
	require.NotNil(t, c.CoordinatorID)
	assert.Equal(t, "idle", *c.CoordinatorID)
	locker.AssertExpectations(t)
	assignments.AssertExpectations(t)
}

func TestAssignmentService_AutoAssign_NoCoordinator(t *testing.T) {
	assignments := new(MockAssignmentRepository)
	svc := NewAssignmentService(AssignmentDependencies{AssignmentRepo: assignments})

	c := &domain.Case{ID: "case-1", OfficeID: "o1", Status: domain.CaseStatusPending}
	assignments.On("CoordinatorWorkloads", mock.Anything, mock.Anything).Return([]domain.CoordinatorWorkload{}, nil)

	_, err := svc.AutoAssign(context.Background(), c, nil)
	assert.ErrorIs(t, err, ErrNoCoordinatorAvailable)
	assert.Equal(t, domain.CaseStatusPending, c.Status)
	assert.Nil(t, c.CoordinatorID)
	assignments.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
}

func TestAssignmentService_AutoAssign_LockUnavailable(t *testing.T) {
	assignments := new(MockAssignmentRepository)
	locker := new(MockLocker)
	svc := NewAssignmentService(AssignmentDependencies{AssignmentRepo: assignments, Locker: locker})

	locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	_, err := svc.AutoAssign(context.Background(), &domain.Case{ID: "c", OfficeID: "o"}, nil)
	require.Error(t, err)
	assert.Equal(t, "SERVICE_UNAVAILABLE", apperrors.ToDomainError(err).Code)
	assignments.AssertNotCalled(t, "CoordinatorWorkloads", mock.Anything, mock.Anything)
}

func TestAssignmentService_AutoAssign_LockWaitFollowsCallerContext(t *testing.T) {
	assignments := new(MockAssignmentRepository)
	locker := new(MockLocker)
	svc := NewAssignmentService(AssignmentDependencies{AssignmentRepo: assignments, Locker: locker, LockTTL: time.Second})

	deadline := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	locker.On("Acquire", mock.Anything, "assign:office:o", time.Second).Run(func(args mock.Arguments) {
		got, ok := args.Get(0).(context.Context).Deadline()
		require.True(t, ok)
		assert.True(t, got.Equal(deadline), "lock wait must not be cut shorter than the request")
	}).Return(nil, context.DeadlineExceeded)

	_, err := svc.AutoAssign(ctx, &domain.Case{ID: "c", OfficeID: "o"}, nil)
	assert.Equal(t, "SERVICE_UNAVAILABLE", apperrors.ToDomainError(err).Code)
	locker.AssertExpectations(t)
}

func TestAssignmentService_Reassign(t *testing.T) {
	office := "o1"
	other := "o2"
	admin := &domain.User{ID: "admin", Role: domain.BaseRoleAdmin}
	coordinator := &domain.User{ID: "coord-2", Role: domain.BaseRoleCoordinator, OfficeID: &office, Status: domain.UserStatusActive}
	foreign := &domain.User{ID: "coord-3", Role: domain.BaseRoleCoordinator, OfficeID: &other, Status: domain.UserStatusActive}
	current := "coord-1"

	newCase := func(status domain.CaseStatus) *domain.Case {
		return &domain.Case{ID: "case-1", OfficeID: office, CoordinatorID: &current, Status: status}
	}

	t.Run("moves case to new coordinator", func(t *testing.T) {
		cases := new(MockCaseRepository)
		users := new(MockUserRepository)
		assignments := new(MockAssignmentRepository)
		svc := NewAssignmentService(AssignmentDependencies{CaseRepo: cases, UserRepo: users, AssignmentRepo: assignments})

		cases.On("GetByID", mock.Anything, "case-1").Return(newCase(domain.CaseStatusAssigned), nil)
		users.On("GetByID", mock.Anything, "coord-2").Return(coordinator, nil)
		assignments.On("Assign", mock.Anything, mock.MatchedBy(func(p repository.AssignCoordinatorParams) bool {
			return p.CoordinatorID == "coord-2" && p.NewStatus == nil && *p.ActorID == "admin"
		})).Return(&domain.CaseAssignment{}, nil)

		c, err := svc.Reassign(context.Background(), admin, "case-1", "coord-2")
		require.NoError(t, err)
		assert.Equal(t, "coord-2", *c.CoordinatorID)
		assert.Equal(t, domain.CaseStatusAssigned, c.Status)
	})

	t.Run("rejects coordinator from another office", func(t *testing.T) {
		cases := new(MockCaseRepository)
		users := new(MockUserRepository)
		svc := NewAssignmentService(AssignmentDependencies{CaseRepo: cases, UserRepo: users, AssignmentRepo: new(MockAssignmentRepository)})

		cases.On("GetByID", mock.Anything, "case-1").Return(newCase(domain.CaseStatusAssigned), nil)
		users.On("GetByID", mock.Anything, "coord-3").Return(foreign, nil)

		_, err := svc.Reassign(context.Background(), admin, "case-1", "coord-3")
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("rejects closed case", func(t *testing.T) {
		cases := new(MockCaseRepository)
		svc := NewAssignmentService(AssignmentDependencies{CaseRepo: cases, UserRepo: new(MockUserRepository)})
		cases.On("GetByID", mock.Anything, "case-1").Return(newCase(domain.CaseStatusClosed), nil)

		_, err := svc.Reassign(context.Background(), admin, "case-1", "coord-2")
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("case closed after read is a conflict", func(t *testing.T) {
		cases := new(MockCaseRepository)
		users := new(MockUserRepository)
		assignments := new(MockAssignmentRepository)
		svc := NewAssignmentService(AssignmentDependencies{CaseRepo: cases, UserRepo: users, AssignmentRepo: assignments})

		cases.On("GetByID", mock.Anything, "case-1").Return(newCase(domain.CaseStatusAssigned), nil)
		users.On("GetByID", mock.Anything, "coord-2").Return(coordinator, nil)
		assignments.On("Assign", mock.Anything, mock.Anything).Return(nil, repository.ErrStaleRow)

		_, err := svc.Reassign(context.Background(), admin, "case-1", "coord-2")
		de := apperrors.ToDomainError(err)
		assert.Equal(t, "CONFLICT", de.Code)
		assert.Equal(t, 409, de.HTTPStatus)
	})

	t.Run("non admin forbidden", func(t *testing.T) {
		svc := NewAssignmentService(AssignmentDependencies{})
		_, err := svc.Reassign(context.Background(), coordinator, "case-1", "coord-2")
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})
}

// memoryAssignments is a stateful CaseAssignmentRepository used to observe
// concurrent auto-assignment.
type memoryAssignments struct {
	mu           sync.Mutex
	coordinators []string
	pending      map[string]int
}

func (m *memoryAssignments) CoordinatorWorkloads(_ context.Context, _ *string) ([]domain.CoordinatorWorkload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CoordinatorWorkload, 0, len(m.coordinators))
	for _, id := range m.coordinators {
		out = append(out, domain.CoordinatorWorkload{CoordinatorID: id, Pending: m.pending[id]})
	}
	// Widen the race window between read and write.
	time.Sleep(5 * time.Millisecond)
	return out, nil
}

func (m *memoryAssignments) Assign(_ context.Context, p repository.AssignCoordinatorParams) (*domain.CaseAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[p.CoordinatorID]++
	return &domain.CaseAssignment{CaseID: p.CaseID, CoordinatorID: p.CoordinatorID}, nil
}

func (m *memoryAssignments) CompletePending(context.Context, string) error { return nil }

func (m *memoryAssignments) ListByCase(context.Context, string) ([]domain.CaseAssignment, error) {
	return nil, nil
}

func TestAssignmentService_ConcurrentAutoAssignSpreadsLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memoryAssignments{coordinators: []string{"a", "b", "c", "d"}, pending: map[string]int{}}
	svc := NewAssignmentService(AssignmentDependencies{
		AssignmentRepo: repo,
		Locker:         persistence.NewRedisLocker(&persistence.Redis{Client: client}),
		LockTTL:        5 * time.Second,
	})

	const cases = 8
	var wg sync.WaitGroup
	errs := make(chan error, cases)
	for i := 0; i < cases; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &domain.Case{ID: string(rune('A' + i)), OfficeID: "o1", Status: domain.CaseStatusPending}
			_, err := svc.AutoAssign(context.Background(), c, nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	counts := make([]int, 0, len(repo.pending))
	for _, n := range repo.pending {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	assert.Equal(t, []int{2, 2, 2, 2}, counts)
}

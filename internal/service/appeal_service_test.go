package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

func newAppealService() (*AppealService, *MockAppealRepository, *MockCaseRepository) {
	appeals := new(MockAppealRepository)
	cases := new(MockCaseRepository)
	svc := NewAppealService(AppealDependencies{AppealRepo: appeals, CaseRepo: cases})
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, appeals, cases
}

func TestAppealService_File(t *testing.T) {
	lawyerID := "lawyer-1"
	lawyer := &domain.User{ID: lawyerID, Role: domain.BaseRoleLawyer}
	input := FileAppealInput{CaseID: "case-1", Title: "Appeal", Grounds: "new evidence", Court: "High Court"}

	t.Run("files on resolved case", func(t *testing.T) {
		svc, appeals, cases := newAppealService()
		cases.On("GetByID", mock.Anything, "case-1").Return(&domain.Case{ID: "case-1", LawyerID: &lawyerID, Status: domain.CaseStatusResolved}, nil)
		appeals.On("List", mock.Anything, mock.MatchedBy(func(f repository.AppealFilter) bool {
			return f.CaseID != nil && *f.CaseID == "case-1" && len(f.Statuses) == 2
		})).Return([]domain.Appeal{}, 0, nil)
		appeals.On("Create", mock.Anything, mock.Anything).Return(nil)

		appeal, err := svc.File(context.Background(), lawyer, input)
		require.NoError(t, err)
		assert.Equal(t, domain.AppealStatusPending, appeal.Status)
		assert.Equal(t, lawyerID, appeal.LawyerID)
	})

	t.Run("case must be resolved or closed", func(t *testing.T) {
		svc, _, cases := newAppealService()
		cases.On("GetByID", mock.Anything, "case-1").Return(&domain.Case{ID: "case-1", LawyerID: &lawyerID, Status: domain.CaseStatusInProgress}, nil)

		_, err := svc.File(context.Background(), lawyer, input)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("only case lawyer", func(t *testing.T) {
		svc, _, cases := newAppealService()
		other := "lawyer-2"
		cases.On("GetByID", mock.Anything, "case-1").Return(&domain.Case{ID: "case-1", LawyerID: &other, Status: domain.CaseStatusClosed}, nil)

		_, err := svc.File(context.Background(), lawyer, input)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("one open appeal per case", func(t *testing.T) {
		svc, appeals, cases := newAppealService()
		cases.On("GetByID", mock.Anything, "case-1").Return(&domain.Case{ID: "case-1", LawyerID: &lawyerID, Status: domain.CaseStatusClosed}, nil)
		appeals.On("List", mock.Anything, mock.Anything).Return([]domain.Appeal{{ID: "a0"}}, 1, nil)

		_, err := svc.File(context.Background(), lawyer, input)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})
}

func TestAppealService_Lifecycle(t *testing.T) {
	office := "office-1"
	lawyerID := "lawyer-1"
	lawyer := &domain.User{ID: lawyerID, Role: domain.BaseRoleLawyer}
	coordinator := &domain.User{ID: "coord", Role: domain.BaseRoleCoordinator, OfficeID: &office}
	c := &domain.Case{ID: "case-1", OfficeID: office, LawyerID: &lawyerID, Status: domain.CaseStatusClosed}

	t.Run("hearing must be in the future", func(t *testing.T) {
		svc, appeals, cases := newAppealService()
		appeals.On("GetByID", mock.Anything, "a1").Return(&domain.Appeal{ID: "a1", CaseID: "case-1", LawyerID: lawyerID, Status: domain.AppealStatusPending}, nil)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)

		_, err := svc.ScheduleHearing(context.Background(), lawyer, "a1", svc.now().Add(-time.Hour))
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("schedule then decide", func(t *testing.T) {
		svc, appeals, cases := newAppealService()
		appeal := &domain.Appeal{ID: "a1", CaseID: "case-1", LawyerID: lawyerID, Status: domain.AppealStatusPending}
		appeals.On("GetByID", mock.Anything, "a1").Return(appeal, nil)
		appeals.On("Update", mock.Anything, appeal, domain.AppealStatusPending).Return(nil).Once()
		appeals.On("Update", mock.Anything, appeal, domain.AppealStatusScheduled).Return(nil).Once()
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)

		hearing := svc.now().Add(72 * time.Hour)
		got, err := svc.ScheduleHearing(context.Background(), lawyer, "a1", hearing)
		require.NoError(t, err)
		assert.Equal(t, domain.AppealStatusScheduled, got.Status)

		_, err = svc.Decide(context.Background(), lawyer, "a1", domain.AppealStatusGranted, "ok")
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

		got, err = svc.Decide(context.Background(), coordinator, "a1", domain.AppealStatusGranted, "granted on review")
		require.NoError(t, err)
		assert.Equal(t, domain.AppealStatusGranted, got.Status)
		require.NotNil(t, got.DecidedAt)

		_, err = svc.Withdraw(context.Background(), lawyer, "a1")
		assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
	})

	t.Run("withdraw racing a decision is a conflict", func(t *testing.T) {
		svc, appeals, cases := newAppealService()
		appeal := &domain.Appeal{ID: "a1", CaseID: "case-1", LawyerID: lawyerID, Status: domain.AppealStatusScheduled}
		appeals.On("GetByID", mock.Anything, "a1").Return(appeal, nil)
		appeals.On("Update", mock.Anything, appeal, domain.AppealStatusScheduled).Return(repository.ErrStaleRow)
		cases.On("GetByID", mock.Anything, "case-1").Return(c, nil)

		_, err := svc.Withdraw(context.Background(), lawyer, "a1")
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("decide rejects non-final outcome", func(t *testing.T) {
		svc, _, _ := newAppealService()
		_, err := svc.Decide(context.Background(), coordinator, "a1", domain.AppealStatusScheduled, "")
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})
}

package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/mailer"
	"github.com/spec-kit/legal-aid-service/internal/repository"
)

// MockCaseRepository is a mock implementation of repository.CaseRepository
type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) Create(ctx context.Context, c *domain.Case) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCaseRepository) UpdateStatus(ctx context.Context, id string, from, to domain.CaseStatus, closedAt *time.Time) (time.Time, error) {
	args := m.Called(ctx, id, from, to, closedAt)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockCaseRepository) UpdatePriority(ctx context.Context, id string, priority domain.CasePriority) (time.Time, error) {
	args := m.Called(ctx, id, priority)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockCaseRepository) SetLawyer(ctx context.Context, id string, previous *string, lawyerID string) (time.Time, error) {
	args := m.Called(ctx, id, previous, lawyerID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockCaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Case), args.Error(1)
}

func (m *MockCaseRepository) List(ctx context.Context, filter repository.CaseFilter) ([]domain.Case, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Case), args.Int(1), args.Error(2)
}

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

// MockRoleRepository is a mock implementation of repository.RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockRoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *MockRoleRepository) CountUsers(ctx context.Context, roleID string) (int, error) {
	args := m.Called(ctx, roleID)
	return args.Int(0), args.Error(1)
}

// MockOfficeRepository is a mock implementation of repository.OfficeRepository
type MockOfficeRepository struct {
	mock.Mock
}

func (m *MockOfficeRepository) Create(ctx context.Context, office *domain.Office) error {
	return m.Called(ctx, office).Error(0)
}

func (m *MockOfficeRepository) Update(ctx context.Context, office *domain.Office) error {
	return m.Called(ctx, office).Error(0)
}

func (m *MockOfficeRepository) GetByID(ctx context.Context, id string) (*domain.Office, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Office), args.Error(1)
}

func (m *MockOfficeRepository) List(ctx context.Context, includeInactive bool) ([]domain.Office, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Office), args.Error(1)
}

// MockPasswordResetRepository is a mock implementation of repository.PasswordResetRepository
type MockPasswordResetRepository struct {
	mock.Mock
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockPasswordResetRepository) GetByToken(ctx context.Context, token string) (*repository.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PasswordResetToken), args.Error(1)
}

func (m *MockPasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockAssignmentRepository is a mock implementation of repository.CaseAssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) CoordinatorWorkloads(ctx context.Context, officeID *string) ([]domain.CoordinatorWorkload, error) {
	args := m.Called(ctx, officeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CoordinatorWorkload), args.Error(1)
}

func (m *MockAssignmentRepository) Assign(ctx context.Context, params repository.AssignCoordinatorParams) (*domain.CaseAssignment, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaseAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) CompletePending(ctx context.Context, caseID string) error {
	return m.Called(ctx, caseID).Error(0)
}

func (m *MockAssignmentRepository) ListByCase(ctx context.Context, caseID string) ([]domain.CaseAssignment, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaseAssignment), args.Error(1)
}

// MockHistoryRepository is a mock implementation of repository.CaseHistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, history *domain.CaseHistory) error {
	return m.Called(ctx, history).Error(0)
}

func (m *MockHistoryRepository) ListByCase(ctx context.Context, caseID string) ([]domain.CaseHistory, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaseHistory), args.Error(1)
}

// MockNoteRepository is a mock implementation of repository.CaseNoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Create(ctx context.Context, note *domain.CaseNote) error {
	return m.Called(ctx, note).Error(0)
}

func (m *MockNoteRepository) ListByCase(ctx context.Context, caseID string, includeInternal bool) ([]domain.CaseNote, error) {
	args := m.Called(ctx, caseID, includeInternal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaseNote), args.Error(1)
}

// MockAppealRepository is a mock implementation of repository.AppealRepository
type MockAppealRepository struct {
	mock.Mock
}

func (m *MockAppealRepository) Create(ctx context.Context, appeal *domain.Appeal) error {
	return m.Called(ctx, appeal).Error(0)
}

func (m *MockAppealRepository) Update(ctx context.Context, appeal *domain.Appeal, from domain.AppealStatus) error {
	return m.Called(ctx, appeal, from).Error(0)
}

func (m *MockAppealRepository) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appeal), args.Error(1)
}

func (m *MockAppealRepository) List(ctx context.Context, filter repository.AppealFilter) ([]domain.Appeal, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Appeal), args.Int(1), args.Error(2)
}

// MockDocumentRepository is a mock implementation of repository.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Document, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

// MockAppointmentRepository is a mock implementation of repository.AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	return m.Called(ctx, appt).Error(0)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, appt *domain.Appointment, from domain.AppointmentStatus) error {
	return m.Called(ctx, appt, from).Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) List(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Appointment), args.Int(1), args.Error(2)
}

func (m *MockAppointmentRepository) HasOverlap(ctx context.Context, staffID string, startsAt, endsAt time.Time, excludeID *string) (bool, error) {
	args := m.Called(ctx, staffID, startsAt, endsAt, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) DueForReminder(ctx context.Context, now, until time.Time) ([]domain.Appointment, error) {
	args := m.Called(ctx, now, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of repository.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error {
	return m.Called(ctx, payment, from).Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]domain.Payment, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}

// MockNotificationRepository is a mock implementation of repository.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) List(ctx context.Context, userID string, unreadOnly bool, page repository.Page) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, unreadOnly, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockReportRepository is a mock implementation of repository.ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Dashboard(ctx context.Context, from, to time.Time) (*domain.DashboardReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardReport), args.Error(1)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockReportCache is a mock implementation of ReportCache
type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockReportCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

// MockTokenRevoker is a mock implementation of TokenRevoker
type MockTokenRevoker struct {
	mock.Mock
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func errNoRows() error {
	return pgx.ErrNoRows
}

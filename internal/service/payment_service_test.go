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

func TestPaymentService_Create(t *testing.T) {
	office := "office-1"
	coordinator := &domain.User{ID: "coord", Role: domain.BaseRoleCoordinator, OfficeID: &office}
	payments := new(MockPaymentRepository)
	cases := new(MockCaseRepository)
	svc := NewPaymentService(PaymentDependencies{PaymentRepo: payments, CaseRepo: cases})

	cases.On("GetByID", mock.Anything, "case-1").Return(&domain.Case{ID: "case-1", ClientID: "client-1", OfficeID: office}, nil)
	payments.On("Create", mock.Anything, mock.Anything).Return(nil)

	p, err := svc.Create(context.Background(), coordinator, CreatePaymentInput{CaseID: "case-1", AmountCents: 15000})
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.Equal(t, "client-1", p.ClientID)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)

	_, err = svc.Create(context.Background(), coordinator, CreatePaymentInput{CaseID: "case-1", AmountCents: 0})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = svc.Create(context.Background(), &domain.User{ID: "l", Role: domain.BaseRoleLawyer, OfficeID: &office}, CreatePaymentInput{CaseID: "case-1", AmountCents: 100})
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestPaymentService_UpdateStatus(t *testing.T) {
	admin := &domain.User{ID: "admin", Role: domain.BaseRoleAdmin}
	method := domain.PaymentMethodMobileMoney
	ref := " TX-991 "
	fixed := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	newSvc := func(status domain.PaymentStatus) (*PaymentService, *domain.Payment) {
		payments := new(MockPaymentRepository)
		p := &domain.Payment{ID: "p1", OfficeID: "o1", Status: status}
		payments.On("GetByID", mock.Anything, "p1").Return(p, nil)
		payments.On("Update", mock.Anything, p, status).Return(nil)
		svc := NewPaymentService(PaymentDependencies{PaymentRepo: payments, CaseRepo: new(MockCaseRepository)})
		svc.now = func() time.Time { return fixed }
		return svc, p
	}

	t.Run("paid requires method and reference", func(t *testing.T) {
		svc, _ := newSvc(domain.PaymentStatusPending)
		_, err := svc.UpdateStatus(context.Background(), admin, "p1", PaymentStatusInput{Status: domain.PaymentStatusPaid})
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("paid stamps paid_at", func(t *testing.T) {
		svc, _ := newSvc(domain.PaymentStatusPending)
		p, err := svc.UpdateStatus(context.Background(), admin, "p1", PaymentStatusInput{Status: domain.PaymentStatusPaid, Method: &method, Reference: &ref})
		require.NoError(t, err)
		assert.Equal(t, fixed, *p.PaidAt)
		assert.Equal(t, "TX-991", *p.Reference)
	})

	t.Run("payment changed by another request is a conflict", func(t *testing.T) {
		payments := new(MockPaymentRepository)
		p := &domain.Payment{ID: "p1", OfficeID: "o1", Status: domain.PaymentStatusPending}
		payments.On("GetByID", mock.Anything, "p1").Return(p, nil)
		payments.On("Update", mock.Anything, p, domain.PaymentStatusPending).Return(repository.ErrStaleRow)
		svc := NewPaymentService(PaymentDependencies{PaymentRepo: payments, CaseRepo: new(MockCaseRepository)})

		_, err := svc.UpdateStatus(context.Background(), admin, "p1", PaymentStatusInput{Status: domain.PaymentStatusWaived})
		de := apperrors.ToDomainError(err)
		assert.Equal(t, "CONFLICT", de.Code)
		assert.Equal(t, 409, de.HTTPStatus)
	})

	tests := []struct {
		from domain.PaymentStatus
		to   domain.PaymentStatus
		ok   bool
	}{
		{domain.PaymentStatusPending, domain.PaymentStatusWaived, true},
		{domain.PaymentStatusFailed, domain.PaymentStatusPending, true},
		{domain.PaymentStatusWaived, domain.PaymentStatusPaid, false},
		{domain.PaymentStatusRefunded, domain.PaymentStatusPending, false},
		{domain.PaymentStatusPending, domain.PaymentStatusRefunded, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			svc, _ := newSvc(tt.from)
			_, err := svc.UpdateStatus(context.Background(), admin, "p1", PaymentStatusInput{Status: tt.to})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
			}
		})
	}
}

func TestPaymentService_List(t *testing.T) {
	payments := new(MockPaymentRepository)
	svc := NewPaymentService(PaymentDependencies{PaymentRepo: payments})

	_, err := svc.List(context.Background(), &domain.User{ID: "km", Role: domain.BaseRoleKebeleManager}, repository.PaymentFilter{})
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	payments.On("List", mock.Anything, mock.MatchedBy(func(f repository.PaymentFilter) bool {
		return f.ClientID != nil && *f.ClientID == "client-1"
	})).Return([]domain.Payment{{ID: "p1"}}, 1, nil)
	res, err := svc.List(context.Background(), &domain.User{ID: "client-1", Role: domain.BaseRoleClient}, repository.PaymentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

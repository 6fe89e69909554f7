package service

import (
	"context"
	"strings"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// OfficeService manages legal-aid branches.
type OfficeService struct {
	offices repository.OfficeRepository
}

// OfficeInput describes an office create or update.
type OfficeInput struct {
	Code     string
	Name     string
	Region   string
	Zone     string
	Woreda   string
	Kebele   string
	Address  string
	Phone    string
	IsActive *bool
}

// NewOfficeService constructs the service.
func NewOfficeService(offices repository.OfficeRepository) *OfficeService {
	return &OfficeService{offices: offices}
}

func (s *OfficeService) Create(ctx context.Context, input OfficeInput) (*domain.Office, error) {
	office := &domain.Office{IsActive: true}
	applyOfficeInput(office, input)
	if office.Code == "" || office.Name == "" {
		return nil, apperrors.NewValidationError("code and name are required", nil)
	}
	if err := s.offices.Create(ctx, office); err != nil {
		return nil, officeError(err, office.Code)
	}
	return office, nil
}

func (s *OfficeService) Update(ctx context.Context, id string, input OfficeInput) (*domain.Office, error) {
	office, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyOfficeInput(office, input)
	if err := s.offices.Update(ctx, office); err != nil {
		return nil, officeError(err, office.Code)
	}
	return office, nil
}

func (s *OfficeService) Get(ctx context.Context, id string) (*domain.Office, error) {
	office, err := s.offices.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "office", map[string]any{"office_id": id})
	}
	return office, nil
}

func (s *OfficeService) List(ctx context.Context, includeInactive bool) ([]domain.Office, error) {
	offices, err := s.offices.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return offices, nil
}

func applyOfficeInput(office *domain.Office, input OfficeInput) {
	if code := strings.ToUpper(strings.TrimSpace(input.Code)); code != "" {
		office.Code = code
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		office.Name = name
	}
	office.Region = strings.TrimSpace(input.Region)
	office.Zone = strings.TrimSpace(input.Zone)
	office.Woreda = strings.TrimSpace(input.Woreda)
	office.Kebele = strings.TrimSpace(input.Kebele)
	office.Address = strings.TrimSpace(input.Address)
	office.Phone = strings.TrimSpace(input.Phone)
	if input.IsActive != nil {
		office.IsActive = *input.IsActive
	}
}

func officeError(err error, code string) error {
	de := apperrors.ToDomainError(err)
	if de.Code == "CONFLICT" {
		return apperrors.NewConflict("office code already in use", map[string]any{"code": code})
	}
	return de
}

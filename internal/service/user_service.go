package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/config"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// UserService covers admin account management and kebele residency checks.
type UserService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	offices    repository.OfficeRepository
	bcryptCost int
}

// UserDependencies bundles repositories for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	OfficeRepo repository.OfficeRepository
}

// CreateStaffInput is the admin payload for new personnel accounts.
type CreateStaffInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	RoleID   string
	OfficeID *string
	Kebele   *string
}

// UpdateUserInput carries optional account changes.
type UpdateUserInput struct {
	Name     *string
	Phone    *string
	RoleID   *string
	OfficeID *string
	Kebele   *string
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		offices:    deps.OfficeRepo,
		bcryptCost: cfg.BcryptCost,
	}
}

// CreateStaff creates a lawyer, coordinator, kebele manager or admin account.
func (s *UserService) CreateStaff(ctx context.Context, input CreateStaffInput) (*domain.User, error) {
	role, err := s.roles.GetByID(ctx, input.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role_id": input.RoleID})
		}
		return nil, apperrors.MapError(err)
	}
	if !role.BaseRole.IsStaff() {
		return nil, apperrors.NewValidationError("role is not a staff role", map[string]any{"role_id": input.RoleID})
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"password": "must be at least 8 characters"})
	}

	email := normalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Phone:    strings.TrimSpace(input.Phone),
		OfficeID: trimPtr(input.OfficeID),
		Kebele:   trimPtr(input.Kebele),
		Status:   domain.UserStatusActive,
	}
	applyRole(user, role)
	if err := s.checkPlacement(ctx, user); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter) (ListResult[domain.User], error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return ListResult[domain.User]{}, apperrors.MapError(err)
	}
	return newListResult(users, total, filter.Page), nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// Update applies admin edits to an account.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.OfficeID != nil {
		user.OfficeID = trimPtr(input.OfficeID)
	}
	if input.Kebele != nil {
		user.Kebele = trimPtr(input.Kebele)
	}
	if input.RoleID != nil && *input.RoleID != user.RoleID {
		role, err := s.roles.GetByID(ctx, *input.RoleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown role", map[string]any{"role_id": *input.RoleID})
			}
			return nil, apperrors.MapError(err)
		}
		if role.BaseRole.IsStaff() != user.Role.IsStaff() {
			return nil, apperrors.NewValidationError("cannot move accounts between client and staff roles", nil)
		}
		applyRole(user, role)
	}
	if err := s.checkPlacement(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// SetStatus activates or suspends an account.
func (s *UserService) SetStatus(ctx context.Context, actor *domain.User, id string, status domain.UserStatus) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if status != domain.UserStatusActive && status != domain.UserStatusSuspended {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	if actor.ID == id && status == domain.UserStatusSuspended {
		return nil, apperrors.NewConflict("cannot suspend your own account", nil)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// ListResidents lists the clients registered in the kebele manager's kebele.
func (s *UserService) ListResidents(ctx context.Context, actor *domain.User, search *string, page repository.Page) (ListResult[domain.User], error) {
	if err := requireActor(actor); err != nil {
		return ListResult[domain.User]{}, err
	}
	client := domain.BaseRoleClient
	filter := repository.UserFilter{BaseRole: &client, Search: search, Page: page}
	if actor.Role != domain.BaseRoleAdmin {
		if actor.Kebele == nil {
			return ListResult[domain.User]{}, apperrors.NewForbidden("no kebele on record")
		}
		filter.Kebele = actor.Kebele
	}
	return s.List(ctx, filter)
}

// VerifyResidency marks a client as a confirmed resident of the manager's kebele.
func (s *UserService) VerifyResidency(ctx context.Context, actor *domain.User, clientID string) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Role != domain.BaseRoleClient {
		return nil, apperrors.NewValidationError("user is not a client", map[string]any{"user_id": clientID})
	}
	if actor.Role != domain.BaseRoleAdmin {
		if !actor.ManagesKebele(client.Kebele) {
			return nil, apperrors.NewForbidden("client is not a resident of your kebele")
		}
	}
	if client.ResidencyVerified {
		return client, nil
	}
	client.ResidencyVerified = true
	if err := s.users.Update(ctx, client); err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": clientID})
	}
	return client, nil
}

// checkPlacement enforces the office and kebele each staff role needs.
func (s *UserService) checkPlacement(ctx context.Context, user *domain.User) error {
	switch user.Role {
	case domain.BaseRoleLawyer, domain.BaseRoleCoordinator:
		if user.OfficeID == nil {
			return apperrors.NewValidationError("office is required for this role", map[string]any{"office_id": "required"})
		}
	case domain.BaseRoleKebeleManager:
		if user.Kebele == nil {
			return apperrors.NewValidationError("kebele is required for this role", map[string]any{"kebele": "required"})
		}
	}
	if user.OfficeID == nil {
		return nil
	}
	office, err := s.offices.GetByID(ctx, *user.OfficeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown office", map[string]any{"office_id": *user.OfficeID})
		}
		return apperrors.MapError(err)
	}
	if !office.IsActive {
		return apperrors.NewValidationError("office is inactive", map[string]any{"office_id": office.ID})
	}
	return nil
}

func applyRole(user *domain.User, role *domain.Role) {
	user.RoleID = role.ID
	user.RoleName = role.Name
	user.Role = role.BaseRole
	user.Permissions = role.Permissions
}

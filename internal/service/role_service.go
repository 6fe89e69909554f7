package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// RoleService manages roles and their permission sets.
type RoleService struct {
	roles repository.RoleRepository
}

// RoleInput describes a role create or update.
type RoleInput struct {
	Name        string
	BaseRole    domain.BaseRole
	Description string
	Permissions []domain.Permission
}

// NewRoleService constructs the service.
func NewRoleService(roles repository.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"role_id": id})
	}
	return role, nil
}

// Create adds a custom role.
func (s *RoleService) Create(ctx context.Context, input RoleInput) (*domain.Role, error) {
	name := strings.ToUpper(strings.TrimSpace(input.Name))
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"name": "name is required"})
	}
	if !input.BaseRole.Valid() {
		return nil, apperrors.NewValidationError("unknown base role", map[string]any{"base_role": input.BaseRole})
	}
	perms, err := normalizePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}
	if _, err := s.roles.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("role name already in use", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	role := &domain.Role{
		Name:        name,
		BaseRole:    input.BaseRole,
		Description: strings.TrimSpace(input.Description),
		Permissions: perms,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// Update replaces the description and permission set of a custom role.
func (s *RoleService) Update(ctx context.Context, id string, input RoleInput) (*domain.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperrors.NewConflict("system roles cannot be modified", map[string]any{"role_id": id})
	}
	perms, err := normalizePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}
	role.Description = strings.TrimSpace(input.Description)
	role.Permissions = perms
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, apperrors.NotFoundOr(err, "role", map[string]any{"role_id": id})
	}
	return role, nil
}

// Delete removes a custom role that no user holds.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperrors.NewConflict("system roles cannot be deleted", map[string]any{"role_id": id})
	}
	count, err := s.roles.CountUsers(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("role is assigned to users", map[string]any{"role_id": id, "users": count})
	}
	return apperrors.NotFoundOr(s.roles.Delete(ctx, id), "role", map[string]any{"role_id": id})
}

func normalizePermissions(perms []domain.Permission) ([]domain.Permission, error) {
	seen := make(map[domain.Permission]struct{}, len(perms))
	out := make([]domain.Permission, 0, len(perms))
	for _, p := range perms {
		if !domain.IsKnownPermission(p) {
			return nil, apperrors.NewValidationError("unknown permission", map[string]any{"permission": string(p)})
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// systemRoleDescriptions names the built-in roles, one per base role.
var systemRoleDescriptions = map[domain.BaseRole]string{
	domain.BaseRoleAdmin:         "System administrator",
	domain.BaseRoleClient:        "Legal-aid client",
	domain.BaseRoleLawyer:        "Assigned counsel",
	domain.BaseRoleCoordinator:   "Office intake coordinator",
	domain.BaseRoleKebeleManager: "Kebele administration manager",
}

// EnsureSystemRoles creates missing system roles and resets existing ones to
// the default permission sets. It returns how many roles were created.
func (s *RoleService) EnsureSystemRoles(ctx context.Context) (int, error) {
	bases := []domain.BaseRole{
		domain.BaseRoleAdmin,
		domain.BaseRoleClient,
		domain.BaseRoleLawyer,
		domain.BaseRoleCoordinator,
		domain.BaseRoleKebeleManager,
	}
	created := 0
	for _, base := range bases {
		perms := append([]domain.Permission(nil), domain.DefaultPermissions[base]...)
		role, err := s.roles.GetByName(ctx, string(base))
		switch {
		case err == nil:
			role.Permissions = perms
			if err := s.roles.Update(ctx, role); err != nil {
				return created, apperrors.MapError(err)
			}
		case errors.Is(err, pgx.ErrNoRows):
			role = &domain.Role{
				Name:        string(base),
				BaseRole:    base,
				Description: systemRoleDescriptions[base],
				Permissions: perms,
				IsSystem:    true,
			}
			if err := s.roles.Create(ctx, role); err != nil {
				return created, apperrors.MapError(err)
			}
			created++
		default:
			return created, apperrors.MapError(err)
		}
	}
	return created, nil
}

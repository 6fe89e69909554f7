package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// RequireRole ensures the caller's base role is one of allowed.
func RequireRole(allowed ...domain.BaseRole) fiber.Handler {
	allowedSet := make(map[domain.BaseRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequirePermission ensures the caller's role grants every listed permission.
func RequirePermission(perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, perm := range perms {
			if !principal.User.Can(perm) {
				return apperrors.NewDomainError("FORBIDDEN", "missing permission", fiber.StatusForbidden,
					map[string]any{"permission": string(perm)})
			}
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures any principal is present.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}

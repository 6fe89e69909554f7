package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/config"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/mailer"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// clientRoleName is the system role every self-registered account receives.
const clientRoleName = "CLIENT"

// TokenRevoker stores revoked token ids until expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	revoker    TokenRevoker
	mailer     mailer.Mailer
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	RoleRepo          repository.RoleRepository
	PasswordResetRepo repository.PasswordResetRepository
	TokenManager      *auth.TokenManager
	Revoker           TokenRevoker
	Mailer            mailer.Mailer
	Logger            *zap.Logger
}

// AuthResult is a signed-in user with a fresh access token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterClientInput is the self-registration payload.
type RegisterClientInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Kebele   *string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	resetTTL := time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AuthService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   tokens,
		revoker:    deps.Revoker,
		mailer:     deps.Mailer,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// RegisterClient creates a CLIENT account and signs it in.
func (s *AuthService) RegisterClient(ctx context.Context, input RegisterClientInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"password": "must be at least 8 characters"})
	}

	role, err := s.roles.GetByName(ctx, clientRoleName)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "client role", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		Role:         role.BaseRole,
		Permissions:  role.Permissions,
		Kebele:       trimPtr(input.Kebele),
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.issue(user)
}

// Login authenticates any account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active() {
		return nil, apperrors.NewForbidden("account suspended")
	}
	return s.issue(user)
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || principal.TokenID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if s.revoker == nil {
		return nil
	}
	ttl := principal.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, principal.TokenID, ttl); err != nil {
		return apperrors.NewUnavailable("unable to revoke token", err)
	}
	return nil
}

// RequestPasswordReset emails a reset token. Unknown emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}

	raw, err := auth.NewResetToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     raw,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}

	if s.mailer != nil {
		msg := mailer.Message{
			ToName:  user.Name,
			ToEmail: user.Email,
			Subject: "Password reset",
			Body:    "Use this token to reset your password: " + raw + "\nIt expires at " + token.ExpiresAt.UTC().Format(time.RFC1123) + ".",
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid or expired token", nil)
		}
		return apperrors.MapError(err)
	}
	if !token.Usable(s.now()) {
		return apperrors.NewValidationError("invalid or expired token", nil)
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"password": "must be at least 8 characters"})
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid or expired token", nil)
		}
		return apperrors.MapError(err)
	}
	return apperrors.NotFoundOr(s.users.UpdatePassword(ctx, token.UserID, hash), "user", nil)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := auth.ComparePassword(actor.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"new_password": "must be at least 8 characters"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return apperrors.NotFoundOr(s.users.UpdatePassword(ctx, actor.ID, hash), "user", nil)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, meta, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: meta.ExpiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type stubRevoked map[string]bool

func (s stubRevoked) IsRevoked(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

type failingRevoked struct{}

func (failingRevoked) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func testApp(mw *AuthMiddleware, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	handlers := append([]fiber.Handler{mw.Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user, err := UserFromContext(c)
		if err != nil {
			return err
		}
		return c.SendString(user.ID)
	})
	app.Get("/", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	raw, meta, err := tm.GenerateToken("u1", domain.BaseRoleLawyer)
	require.NoError(t, err)

	claims, err := tm.ParseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, meta.ID, claims.ID)
	assert.Equal(t, domain.BaseRoleLawyer, claims.Role)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), meta.ExpiresAt, 5*time.Second)
}

func TestTokenManager_RejectsForeignSecretAndExpiry(t *testing.T) {
	raw, _, err := NewTokenManager("other", 5).GenerateToken("u1", domain.BaseRoleClient)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", 5).ParseToken(raw)
	assert.Error(t, err)

	expired := NewTokenManager("secret", 5)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, _, err = expired.GenerateToken("u1", domain.BaseRoleClient)
	require.NoError(t, err)
	_, err = expired.ParseToken(raw)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := stubUsers{
		"active":    {ID: "active", Role: domain.BaseRoleClient, Status: domain.UserStatusActive},
		"suspended": {ID: "suspended", Role: domain.BaseRoleClient, Status: domain.UserStatusSuspended},
	}
	activeTok, activeMeta, _ := tm.GenerateToken("active", domain.BaseRoleClient)
	suspendedTok, _, _ := tm.GenerateToken("suspended", domain.BaseRoleClient)
	ghostTok, _, _ := tm.GenerateToken("ghost", domain.BaseRoleClient)

	app := testApp(NewAuthMiddleware(tm, users, stubRevoked{}, nil))
	assert.Equal(t, http.StatusUnauthorized, doGet(t, app, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doGet(t, app, "garbage").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doGet(t, app, suspendedTok).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doGet(t, app, ghostTok).StatusCode)
	assert.Equal(t, http.StatusOK, doGet(t, app, activeTok).StatusCode)

	revokedApp := testApp(NewAuthMiddleware(tm, users, stubRevoked{activeMeta.ID: true}, nil))
	assert.Equal(t, http.StatusUnauthorized, doGet(t, revokedApp, activeTok).StatusCode)
}

func TestAuthMiddleware_RevocationStoreDownAllowsValidToken(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := stubUsers{"active": {ID: "active", Role: domain.BaseRoleClient, Status: domain.UserStatusActive}}
	tok, _, err := tm.GenerateToken("active", domain.BaseRoleClient)
	require.NoError(t, err)

	app := testApp(NewAuthMiddleware(tm, users, failingRevoked{}, nil))
	assert.Equal(t, http.StatusOK, doGet(t, app, tok).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doGet(t, app, "garbage").StatusCode)
}

func TestGuards(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := stubUsers{
		"coord": {
			ID: "coord", Role: domain.BaseRoleCoordinator, Status: domain.UserStatusActive,
			Permissions: domain.DefaultPermissions[domain.BaseRoleCoordinator],
		},
	}
	tok, _, _ := tm.GenerateToken("coord", domain.BaseRoleCoordinator)
	mw := NewAuthMiddleware(tm, users, nil, nil)

	assert.Equal(t, http.StatusOK, doGet(t, testApp(mw, RequireRole(domain.BaseRoleCoordinator, domain.BaseRoleAdmin)), tok).StatusCode)
	assert.Equal(t, http.StatusForbidden, doGet(t, testApp(mw, RequireRole(domain.BaseRoleAdmin)), tok).StatusCode)
	assert.Equal(t, http.StatusOK, doGet(t, testApp(mw, RequirePermission(domain.PermCasesAssign)), tok).StatusCode)
	assert.Equal(t, http.StatusForbidden, doGet(t, testApp(mw, RequirePermission(domain.PermRolesManage)), tok).StatusCode)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func TestUserFromContext_Missing(t *testing.T) {
	app := fiber.New()
	var got error
	app.Get("/", func(c *fiber.Ctx) error {
		_, got = UserFromContext(c)
		return nil
	})
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(got, &de))
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
}

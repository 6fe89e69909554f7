package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-aid-service/internal/api/dto"
	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *dto.ListMeta   `json:"meta"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{
				"success": false,
				"error":   fiber.Map{"code": de.Code, "message": de.Message, "details": de.Details},
			})
		},
	})
}

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

// authenticator signs tokens for the given users and guards routes with the real middleware.
type authenticator struct {
	tokens *auth.TokenManager
	mw     *auth.AuthMiddleware
}

func newAuthenticator(users ...*domain.User) *authenticator {
	stub := stubUsers{}
	for _, u := range users {
		stub[u.ID] = u
	}
	tokens := auth.NewTokenManager("test-secret", 60)
	return &authenticator{tokens: tokens, mw: auth.NewAuthMiddleware(tokens, stub, nil, nil)}
}

func (a *authenticator) token(t *testing.T, u *domain.User) string {
	t.Helper()
	raw, _, err := a.tokens.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	return raw
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 && resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return doRequest(t, app, req, token)
}

func activeUser(id string, role domain.BaseRole) *domain.User {
	return &domain.User{ID: id, Name: id, Email: id + "@example.com", Role: role, Status: domain.UserStatusActive,
		Permissions: domain.DefaultPermissions[role]}
}

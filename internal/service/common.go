package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// ListResult is a page of items plus the unpaged total.
type ListResult[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}

func newListResult[T any](items []T, total int, page repository.Page) ListResult[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}
}

type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func newPublisher(dispatcher events.Dispatcher, logger *zap.Logger) publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return publisher{dispatcher: dispatcher, logger: logger}
}

// publish fires event; subscriber failures are logged, never returned to the caller.
func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event subscribers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

// writeError maps a failed conditional write. A stale row means another
// request changed the record after it was read.
func writeError(err error, resource, idKey, id string) error {
	if errors.Is(err, repository.ErrStaleRow) {
		return apperrors.NewConflict(resource+" was changed by another request", map[string]any{idKey: id})
	}
	return apperrors.NotFoundOr(err, resource, map[string]any{idKey: id})
}

func requireActor(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

// canViewCase applies the role scoping used for cases and everything hanging off them.
func canViewCase(actor *domain.User, c *domain.Case) bool {
	if actor == nil || c == nil {
		return false
	}
	switch actor.Role {
	case domain.BaseRoleAdmin:
		return true
	case domain.BaseRoleClient:
		return c.ClientID == actor.ID
	case domain.BaseRoleLawyer:
		return c.LawyerID != nil && *c.LawyerID == actor.ID
	case domain.BaseRoleCoordinator:
		return actor.InOffice(c.OfficeID)
	case domain.BaseRoleKebeleManager:
		return actor.ManagesKebele(c.Kebele)
	}
	return false
}

// canManageCase reports whether actor may change assignment-level data on c.
func canManageCase(actor *domain.User, c *domain.Case) bool {
	if actor == nil || c == nil {
		return false
	}
	return actor.Role == domain.BaseRoleAdmin ||
		(actor.Role == domain.BaseRoleCoordinator && actor.InOffice(c.OfficeID))
}

// applyCaseScope narrows filter to the cases actor may see.
func applyCaseScope(actor *domain.User, filter *repository.CaseFilter) error {
	switch actor.Role {
	case domain.BaseRoleAdmin:
	case domain.BaseRoleClient:
		filter.ClientID = &actor.ID
	case domain.BaseRoleLawyer:
		filter.LawyerID = &actor.ID
	case domain.BaseRoleCoordinator:
		if actor.OfficeID == nil {
			return apperrors.NewForbidden("coordinator has no office")
		}
		filter.OfficeID = actor.OfficeID
	case domain.BaseRoleKebeleManager:
		if actor.Kebele == nil {
			return apperrors.NewForbidden("kebele manager has no kebele")
		}
		filter.Kebele = actor.Kebele
	default:
		return apperrors.NewForbidden("unknown role")
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	apperrors "github.com/spec-kit/legal-aid-service/pkg/errorutil"
)

// ReportCache stores serialized reports.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ReportService builds admin dashboards.
type ReportService struct {
	reports repository.ReportRepository
	cache   ReportCache
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// ReportDependencies bundles collaborators.
type ReportDependencies struct {
	ReportRepo repository.ReportRepository
	Cache      ReportCache
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// NewReportService constructs the service. A nil cache or zero TTL disables caching.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports: deps.ReportRepo,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// Dashboard returns the summary for [from, to). A zero to means the start of
// tomorrow (UTC); a zero from means one year before to. refresh skips the cache.
func (s *ReportService) Dashboard(ctx context.Context, from, to time.Time, refresh bool) (*domain.DashboardReport, error) {
	if to.IsZero() {
		to = s.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return nil, apperrors.NewValidationError("from must be before to", map[string]any{"from": from, "to": to})
	}

	key := dashboardKey(from, to)
	if s.cacheEnabled() && !refresh {
		var cached domain.DashboardReport
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("reading report cache", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	report, err := s.reports.Dashboard(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report.GeneratedAt = s.now().UTC()
	report.From, report.To = from, to

	if s.cacheEnabled() {
		if err := s.cache.SetJSON(ctx, key, report, s.ttl); err != nil {
			s.logger.Warn("writing report cache", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

func (s *ReportService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func dashboardKey(from, to time.Time) string {
	return "report:dashboard:" + from.Format(time.RFC3339) + ":" + to.Format(time.RFC3339)
}

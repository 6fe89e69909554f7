package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// ReportRepository aggregates dashboard figures.
type ReportRepository interface {
	Dashboard(ctx context.Context, from, to time.Time) (*domain.DashboardReport, error)
}

type reportRepository struct {
	pool        *pgxpool.Pool
	assignments CaseAssignmentRepository
}

// NewReportRepository creates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool, assignments: NewCaseAssignmentRepository(pool)}
}

func (r *reportRepository) Dashboard(ctx context.Context, from, to time.Time) (*domain.DashboardReport, error) {
	report := &domain.DashboardReport{GeneratedAt: time.Now().UTC(), From: from, To: to}
	var err error

	if report.CasesByStatus, err = r.countBuckets(ctx, `
        SELECT status, '', COUNT(*) FROM cases
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY status ORDER BY status`, from, to); err != nil {
		return nil, err
	}
	for _, b := range report.CasesByStatus {
		report.TotalCases += b.Count
	}

	if report.CasesByCategory, err = r.countBuckets(ctx, `
        SELECT category, '', COUNT(*) FROM cases
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY category ORDER BY category`, from, to); err != nil {
		return nil, err
	}

	if report.CasesByOffice, err = r.countBuckets(ctx, `
        SELECT o.code, o.name, COUNT(c.id) FROM offices o
        LEFT JOIN cases c ON c.office_id = o.id AND c.created_at >= $1 AND c.created_at < $2
        GROUP BY o.id, o.code, o.name ORDER BY COUNT(c.id) DESC, o.code`, from, to); err != nil {
		return nil, err
	}

	if report.AppealsByStatus, err = r.countBuckets(ctx, `
        SELECT status, '', COUNT(*) FROM appeals
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY status ORDER BY status`, from, to); err != nil {
		return nil, err
	}

	if report.PaymentsByStatus, err = r.amountBuckets(ctx, from, to); err != nil {
		return nil, err
	}

	if report.CoordinatorWorkload, err = r.assignments.CoordinatorWorkloads(ctx, nil); err != nil {
		return nil, err
	}

	if report.MonthlyRegistration, err = r.monthly(ctx, from, to); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *reportRepository) countBuckets(ctx context.Context, query string, args ...any) ([]domain.CountBucket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.CountBucket{}
	for rows.Next() {
		var b domain.CountBucket
		if err := rows.Scan(&b.Key, &b.Label, &b.Count); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *reportRepository) amountBuckets(ctx context.Context, from, to time.Time) ([]domain.AmountBucket, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT status, COUNT(*), COALESCE(SUM(amount_cents), 0)::bigint FROM payments
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY status ORDER BY status`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AmountBucket{}
	for rows.Next() {
		var b domain.AmountBucket
		if err := rows.Scan(&b.Key, &b.Count, &b.AmountCents); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *reportRepository) monthly(ctx context.Context, from, to time.Time) ([]domain.MonthlyCount, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT date_trunc('month', created_at) AS month, COUNT(*) FROM cases
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY month ORDER BY month`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.MonthlyCount{}
	for rows.Next() {
		var m domain.MonthlyCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

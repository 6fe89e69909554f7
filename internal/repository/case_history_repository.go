package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// CaseHistoryRepository stores audit entries.
type CaseHistoryRepository interface {
	Create(ctx context.Context, history *domain.CaseHistory) error
	ListByCase(ctx context.Context, caseID string) ([]domain.CaseHistory, error)
}

type caseHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewCaseHistoryRepository builds repository.
func NewCaseHistoryRepository(pool *pgxpool.Pool) CaseHistoryRepository {
	return &caseHistoryRepository{pool: pool}
}

func (r *caseHistoryRepository) Create(ctx context.Context, history *domain.CaseHistory) error {
	const query = `
        INSERT INTO case_history (case_id, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if history.OldValue == nil {
		history.OldValue = map[string]any{}
	}
	if history.NewValue == nil {
		history.NewValue = map[string]any{}
	}
	return r.pool.QueryRow(ctx, query,
		history.CaseID,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *caseHistoryRepository) ListByCase(ctx context.Context, caseID string) ([]domain.CaseHistory, error) {
	const query = `
        SELECT id, case_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM case_history WHERE case_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CaseHistory
	for rows.Next() {
		var history domain.CaseHistory
		if err := rows.Scan(
			&history.ID,
			&history.CaseID,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

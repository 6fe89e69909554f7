package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// CaseNoteRepository stores case notes.
type CaseNoteRepository interface {
	Create(ctx context.Context, note *domain.CaseNote) error
	ListByCase(ctx context.Context, caseID string, includeInternal bool) ([]domain.CaseNote, error)
}

type caseNoteRepository struct {
	pool *pgxpool.Pool
}

// NewCaseNoteRepository creates repository.
func NewCaseNoteRepository(pool *pgxpool.Pool) CaseNoteRepository {
	return &caseNoteRepository{pool: pool}
}

func (r *caseNoteRepository) Create(ctx context.Context, note *domain.CaseNote) error {
	const query = `
        INSERT INTO case_notes (case_id, author_id, visibility, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.CaseID,
		note.AuthorID,
		note.Visibility,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *caseNoteRepository) ListByCase(ctx context.Context, caseID string, includeInternal bool) ([]domain.CaseNote, error) {
	query := `
        SELECT id, case_id, author_id, visibility, body, created_at
        FROM case_notes WHERE case_id=$1`
	if !includeInternal {
		query += ` AND visibility='PUBLIC'`
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY created_at ASC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CaseNote
	for rows.Next() {
		var note domain.CaseNote
		if err := rows.Scan(&note.ID, &note.CaseID, &note.AuthorID, &note.Visibility, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}

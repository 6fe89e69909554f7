package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// AppealFilter scopes appeal listings. Case-level scope fields join through cases.
type AppealFilter struct {
	CaseID   *string
	LawyerID *string
	ClientID *string
	OfficeID *string
	Kebele   *string
	Statuses []domain.AppealStatus
	Page     Page
}

// AppealRepository persists appeals.
type AppealRepository interface {
	Create(ctx context.Context, appeal *domain.Appeal) error
	Update(ctx context.Context, appeal *domain.Appeal, from domain.AppealStatus) error
	GetByID(ctx context.Context, id string) (*domain.Appeal, error)
	List(ctx context.Context, filter AppealFilter) ([]domain.Appeal, int, error)
}

type appealRepository struct {
	pool *pgxpool.Pool
}

// NewAppealRepository instantiates repository.
func NewAppealRepository(pool *pgxpool.Pool) AppealRepository {
	return &appealRepository{pool: pool}
}

const appealColumns = `a.id, a.case_id, a.lawyer_id, a.title, a.grounds, a.court, a.hearing_date, a.status,
               a.decision, a.decided_at, a.created_at, a.updated_at`

func (r *appealRepository) Create(ctx context.Context, appeal *domain.Appeal) error {
	const query = `
        INSERT INTO appeals (case_id, lawyer_id, title, grounds, court, hearing_date, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		appeal.CaseID,
		appeal.LawyerID,
		appeal.Title,
		appeal.Grounds,
		appeal.Court,
		appeal.HearingDate,
		appeal.Status,
	).Scan(&appeal.ID, &appeal.CreatedAt, &appeal.UpdatedAt)
}

// Update writes the lifecycle fields while the stored status is still from.
func (r *appealRepository) Update(ctx context.Context, appeal *domain.Appeal, from domain.AppealStatus) error {
	const query = `
        UPDATE appeals SET hearing_date=$1, status=$2, decision=$3, decided_at=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
        RETURNING updated_at`
	at, err := updatedAt(r.pool.QueryRow(ctx, query,
		appeal.HearingDate,
		appeal.Status,
		appeal.Decision,
		appeal.DecidedAt,
		appeal.ID,
		from,
	))
	if err != nil {
		return err
	}
	appeal.UpdatedAt = at
	return nil
}

func (r *appealRepository) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	return scanAppeal(r.pool.QueryRow(ctx, `SELECT `+appealColumns+` FROM appeals a WHERE a.id=$1`, id))
}

func (r *appealRepository) List(ctx context.Context, filter AppealFilter) ([]domain.Appeal, int, error) {
	var w whereBuilder
	if filter.CaseID != nil {
		w.add("a.case_id=%s", *filter.CaseID)
	}
	if filter.LawyerID != nil {
		w.add("a.lawyer_id=%s", *filter.LawyerID)
	}
	if filter.ClientID != nil {
		w.add("c.client_id=%s", *filter.ClientID)
	}
	if filter.OfficeID != nil {
		w.add("c.office_id=%s", *filter.OfficeID)
	}
	if filter.Kebele != nil {
		w.addFold("c.kebele", *filter.Kebele)
	}
	w.addIn("a.status", toStrings(filter.Statuses))

	const from = ` FROM appeals a JOIN cases c ON c.id = a.case_id`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+appealColumns+from+w.sql()+` ORDER BY a.created_at DESC`+w.paginate(filter.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Appeal
	for rows.Next() {
		appeal, err := scanAppeal(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *appeal)
	}
	return result, total, rows.Err()
}

func scanAppeal(row pgx.Row) (*domain.Appeal, error) {
	var a domain.Appeal
	if err := row.Scan(
		&a.ID,
		&a.CaseID,
		&a.LawyerID,
		&a.Title,
		&a.Grounds,
		&a.Court,
		&a.HearingDate,
		&a.Status,
		&a.Decision,
		&a.DecidedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

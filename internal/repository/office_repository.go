package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// OfficeRepository manages legal-aid branches.
type OfficeRepository interface {
	Create(ctx context.Context, office *domain.Office) error
	Update(ctx context.Context, office *domain.Office) error
	GetByID(ctx context.Context, id string) (*domain.Office, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Office, error)
}

type officeRepository struct {
	pool *pgxpool.Pool
}

// NewOfficeRepository instantiates the repository.
func NewOfficeRepository(pool *pgxpool.Pool) OfficeRepository {
	return &officeRepository{pool: pool}
}

const officeColumns = `id, code, name, region, zone, woreda, kebele, address, phone, is_active, created_at, updated_at`

func (r *officeRepository) Create(ctx context.Context, office *domain.Office) error {
	const query = `
        INSERT INTO offices (code, name, region, zone, woreda, kebele, address, phone, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		office.Code,
		office.Name,
		office.Region,
		office.Zone,
		office.Woreda,
		office.Kebele,
		office.Address,
		office.Phone,
		office.IsActive,
	).Scan(&office.ID, &office.CreatedAt, &office.UpdatedAt)
}

func (r *officeRepository) Update(ctx context.Context, office *domain.Office) error {
	const query = `
        UPDATE offices SET code=$1, name=$2, region=$3, zone=$4, woreda=$5, kebele=$6, address=$7, phone=$8,
            is_active=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		office.Code,
		office.Name,
		office.Region,
		office.Zone,
		office.Woreda,
		office.Kebele,
		office.Address,
		office.Phone,
		office.IsActive,
		office.ID,
	).Scan(&office.UpdatedAt)
}

func (r *officeRepository) GetByID(ctx context.Context, id string) (*domain.Office, error) {
	return scanOffice(r.pool.QueryRow(ctx, `SELECT `+officeColumns+` FROM offices WHERE id=$1`, id))
}

func (r *officeRepository) List(ctx context.Context, includeInactive bool) ([]domain.Office, error) {
	query := `SELECT ` + officeColumns + ` FROM offices`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Office
	for rows.Next() {
		office, err := scanOffice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *office)
	}
	return result, rows.Err()
}

func scanOffice(row pgx.Row) (*domain.Office, error) {
	var office domain.Office
	if err := row.Scan(
		&office.ID,
		&office.Code,
		&office.Name,
		&office.Region,
		&office.Zone,
		&office.Woreda,
		&office.Kebele,
		&office.Address,
		&office.Phone,
		&office.IsActive,
		&office.CreatedAt,
		&office.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &office, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// PaymentFilter scopes payment listings.
type PaymentFilter struct {
	CaseID   *string
	ClientID *string
	OfficeID *string
	Statuses []domain.PaymentStatus
	Page     Page
}

// PaymentRepository persists billing items.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, int, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, case_id, client_id, office_id, amount_cents, currency, description, method, reference,
               status, paid_at, created_by, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	const query = `
        INSERT INTO payments (case_id, client_id, office_id, amount_cents, currency, description, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		p.CaseID,
		p.ClientID,
		p.OfficeID,
		p.AmountCents,
		p.Currency,
		p.Description,
		p.Status,
		p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update writes the billing fields while the stored status is still from.
func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment, from domain.PaymentStatus) error {
	const query = `
        UPDATE payments SET method=$1, reference=$2, status=$3, paid_at=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
        RETURNING updated_at`
	at, err := updatedAt(r.pool.QueryRow(ctx, query,
		p.Method,
		p.Reference,
		p.Status,
		p.PaidAt,
		p.ID,
		from,
	))
	if err != nil {
		return err
	}
	p.UpdatedAt = at
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, int, error) {
	var w whereBuilder
	if filter.CaseID != nil {
		w.add("case_id=%s", *filter.CaseID)
	}
	if filter.ClientID != nil {
		w.add("client_id=%s", *filter.ClientID)
	}
	if filter.OfficeID != nil {
		w.add("office_id=%s", *filter.OfficeID)
	}
	w.addIn("status", toStrings(filter.Statuses))

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments`+w.sql()+` ORDER BY created_at DESC`+w.paginate(filter.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	return result, total, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID,
		&p.CaseID,
		&p.ClientID,
		&p.OfficeID,
		&p.AmountCents,
		&p.Currency,
		&p.Description,
		&p.Method,
		&p.Reference,
		&p.Status,
		&p.PaidAt,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// CaseFilter captures case search parameters. Scope fields (ClientID, LawyerID,
// OfficeID, Kebele) are set by the service from the caller's role.
type CaseFilter struct {
	ClientID      *string
	LawyerID      *string
	CoordinatorID *string
	OfficeID      *string
	Kebele        *string
	Statuses      []domain.CaseStatus
	Categories    []domain.CaseCategory
	Priorities    []domain.CasePriority
	Search        *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Page          Page
}

// CaseRepository encapsulates case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	UpdateStatus(ctx context.Context, id string, from, to domain.CaseStatus, closedAt *time.Time) (time.Time, error)
	UpdatePriority(ctx context.Context, id string, priority domain.CasePriority) (time.Time, error)
	SetLawyer(ctx context.Context, id string, previous *string, lawyerID string) (time.Time, error)
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.Case, int, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

const caseColumns = `c.id, c.case_number, c.client_id, c.office_id, c.coordinator_id, c.lawyer_id, c.title,
               c.description, c.category, c.priority, c.status, c.kebele, c.created_at, c.updated_at, c.closed_at`

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (case_number, client_id, office_id, coordinator_id, lawyer_id, title, description,
            category, priority, status, kebele)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		c.CaseNumber,
		c.ClientID,
		c.OfficeID,
		c.CoordinatorID,
		c.LawyerID,
		c.Title,
		c.Description,
		c.Category,
		c.Priority,
		c.Status,
		c.Kebele,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// UpdateStatus moves the case from one status to another. It returns
// ErrStaleRow when the stored status is no longer from.
func (r *caseRepository) UpdateStatus(ctx context.Context, id string, from, to domain.CaseStatus, closedAt *time.Time) (time.Time, error) {
	const query = `
        UPDATE cases SET status=$1, closed_at=COALESCE($2, closed_at), updated_at=NOW()
        WHERE id=$3 AND status=$4
        RETURNING updated_at`
	return updatedAt(r.pool.QueryRow(ctx, query, to, closedAt, id, from))
}

// UpdatePriority changes the priority of a case that is still open.
func (r *caseRepository) UpdatePriority(ctx context.Context, id string, priority domain.CasePriority) (time.Time, error) {
	const query = `
        UPDATE cases SET priority=$1, updated_at=NOW()
        WHERE id=$2 AND status NOT IN ('CLOSED','REJECTED')
        RETURNING updated_at`
	return updatedAt(r.pool.QueryRow(ctx, query, priority, id))
}

// SetLawyer replaces the lawyer when the case still has previous as its
// lawyer and is open.
func (r *caseRepository) SetLawyer(ctx context.Context, id string, previous *string, lawyerID string) (time.Time, error) {
	const query = `
        UPDATE cases SET lawyer_id=$1, updated_at=NOW()
        WHERE id=$2 AND lawyer_id IS NOT DISTINCT FROM $3::uuid AND status NOT IN ('CLOSED','REJECTED')
        RETURNING updated_at`
	return updatedAt(r.pool.QueryRow(ctx, query, lawyerID, id, previous))
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	return scanCase(r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases c WHERE c.id=$1`, id))
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.Case, int, error) {
	w := caseWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cases c`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + caseColumns + ` FROM cases c` + w.sql() + ` ORDER BY c.updated_at DESC` + w.paginate(filter.Page)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *c)
	}
	return result, total, rows.Err()
}

func caseWhere(filter CaseFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.ClientID != nil {
		w.add("c.client_id=%s", *filter.ClientID)
	}
	if filter.LawyerID != nil {
		w.add("c.lawyer_id=%s", *filter.LawyerID)
	}
	if filter.CoordinatorID != nil {
		w.add("c.coordinator_id=%s", *filter.CoordinatorID)
	}
	if filter.OfficeID != nil {
		w.add("c.office_id=%s", *filter.OfficeID)
	}
	if filter.Kebele != nil {
		w.addFold("c.kebele", *filter.Kebele)
	}
	w.addIn("c.status", toStrings(filter.Statuses))
	w.addIn("c.category", toStrings(filter.Categories))
	w.addIn("c.priority", toStrings(filter.Priorities))
	if filter.CreatedFrom != nil {
		w.add("c.created_at >= %s", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("c.created_at <= %s", *filter.CreatedTo)
	}
	w.addSearch(filter.Search, "c.title", "c.description", "c.case_number")
	return w
}

func scanCase(row pgx.Row) (*domain.Case, error) {
	var c domain.Case
	if err := row.Scan(
		&c.ID,
		&c.CaseNumber,
		&c.ClientID,
		&c.OfficeID,
		&c.CoordinatorID,
		&c.LawyerID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Priority,
		&c.Status,
		&c.Kebele,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

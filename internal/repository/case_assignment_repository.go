package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// AssignCoordinatorParams describes a coordinator taking a case.
type AssignCoordinatorParams struct {
	CaseID        string
	OfficeID      string
	CoordinatorID string
	ActorID       *string
	// NewStatus is applied when set and the locked row is still PENDING.
	NewStatus *domain.CaseStatus
}

// CaseAssignmentRepository tracks coordinator workload.
type CaseAssignmentRepository interface {
	CoordinatorWorkloads(ctx context.Context, officeID *string) ([]domain.CoordinatorWorkload, error)
	Assign(ctx context.Context, params AssignCoordinatorParams) (*domain.CaseAssignment, error)
	CompletePending(ctx context.Context, caseID string) error
	ListByCase(ctx context.Context, caseID string) ([]domain.CaseAssignment, error)
}

type caseAssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewCaseAssignmentRepository builds repository.
func NewCaseAssignmentRepository(pool *pgxpool.Pool) CaseAssignmentRepository {
	return &caseAssignmentRepository{pool: pool}
}

// CoordinatorWorkloads lists active coordinators with their pending assignment counts.
// A nil officeID covers every office.
func (r *caseAssignmentRepository) CoordinatorWorkloads(ctx context.Context, officeID *string) ([]domain.CoordinatorWorkload, error) {
	const query = `
        SELECT u.id, u.name, u.office_id, COUNT(a.id) AS pending, u.created_at
        FROM users u
        JOIN roles r ON r.id = u.role_id
        LEFT JOIN case_assignments a ON a.coordinator_id = u.id AND a.status = 'PENDING'
        WHERE r.base_role = 'COORDINATOR'
          AND u.status = 'ACTIVE'
          AND u.office_id IS NOT NULL
          AND ($1::uuid IS NULL OR u.office_id = $1::uuid)
        GROUP BY u.id, u.name, u.office_id, u.created_at
        ORDER BY pending ASC, u.created_at ASC, u.id ASC`
	rows, err := r.pool.Query(ctx, query, officeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CoordinatorWorkload
	for rows.Next() {
		var w domain.CoordinatorWorkload
		if err := rows.Scan(&w.CoordinatorID, &w.Name, &w.OfficeID, &w.Pending, &w.JoinedAt); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// Assign completes any open assignment for the case, records the new one and
// points the case at the coordinator in a single transaction.
func (r *caseAssignmentRepository) Assign(ctx context.Context, params AssignCoordinatorParams) (*domain.CaseAssignment, error) {
	assignment := &domain.CaseAssignment{
		CaseID:        params.CaseID,
		CoordinatorID: params.CoordinatorID,
		OfficeID:      params.OfficeID,
		Status:        domain.AssignmentStatusPending,
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			previous  *string
			oldStatus domain.CaseStatus
		)
		if err := tx.QueryRow(ctx,
			`SELECT coordinator_id, status FROM cases WHERE id=$1 FOR UPDATE`, params.CaseID,
		).Scan(&previous, &oldStatus); err != nil {
			return err
		}
		if oldStatus == domain.CaseStatusClosed || oldStatus == domain.CaseStatusRejected {
			return ErrStaleRow
		}

		if _, err := tx.Exec(ctx, `
            UPDATE case_assignments SET status='COMPLETED', completed_at=NOW()
            WHERE case_id=$1 AND status='PENDING'`, params.CaseID); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `
            INSERT INTO case_assignments (case_id, coordinator_id, office_id, status)
            VALUES ($1,$2,$3,$4)
            RETURNING id, assigned_at`,
			params.CaseID, params.CoordinatorID, params.OfficeID, assignment.Status,
		).Scan(&assignment.ID, &assignment.AssignedAt); err != nil {
			return err
		}

		newStatus := oldStatus
		if params.NewStatus != nil && oldStatus == domain.CaseStatusPending {
			newStatus = *params.NewStatus
		}
		if _, err := tx.Exec(ctx, `
            UPDATE cases SET coordinator_id=$1, status=$2, updated_at=NOW() WHERE id=$3`,
			params.CoordinatorID, newStatus, params.CaseID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
            INSERT INTO case_history (case_id, changed_by_id, change_type, old_value, new_value)
            VALUES ($1,$2,$3,$4,$5)`,
			params.CaseID, params.ActorID, domain.ChangeTypeCoordinator,
			map[string]any{"coordinator_id": previous},
			map[string]any{"coordinator_id": params.CoordinatorID},
		); err != nil {
			return err
		}
		if newStatus != oldStatus {
			if _, err := tx.Exec(ctx, `
                INSERT INTO case_history (case_id, changed_by_id, change_type, old_value, new_value)
                VALUES ($1,$2,$3,$4,$5)`,
				params.CaseID, params.ActorID, domain.ChangeTypeStatus,
				map[string]any{"status": oldStatus},
				map[string]any{"status": newStatus},
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *caseAssignmentRepository) CompletePending(ctx context.Context, caseID string) error {
	_, err := r.pool.Exec(ctx, `
        UPDATE case_assignments SET status='COMPLETED', completed_at=NOW()
        WHERE case_id=$1 AND status='PENDING'`, caseID)
	return err
}

func (r *caseAssignmentRepository) ListByCase(ctx context.Context, caseID string) ([]domain.CaseAssignment, error) {
	const query = `
        SELECT id, case_id, coordinator_id, office_id, status, assigned_at, completed_at
        FROM case_assignments WHERE case_id=$1 ORDER BY assigned_at ASC`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CaseAssignment
	for rows.Next() {
		var a domain.CaseAssignment
		if err := rows.Scan(&a.ID, &a.CaseID, &a.CoordinatorID, &a.OfficeID, &a.Status, &a.AssignedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

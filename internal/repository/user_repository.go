package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	RoleID   *string
	BaseRole *domain.BaseRole
	OfficeID *string
	Kebele   *string
	Status   *domain.UserStatus
	Search   *string
	Page     Page
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userSelect = `
        SELECT u.id, u.name, u.email, u.phone, u.password_hash, u.role_id, r.name, r.base_role, r.permissions,
               u.office_id, u.kebele, u.residency_verified, u.status, u.created_at, u.updated_at
        FROM users u JOIN roles r ON r.id = u.role_id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, password_hash, role_id, office_id, kebele, residency_verified, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.RoleID,
		user.OfficeID,
		user.Kebele,
		user.ResidencyVerified,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, phone=$2, role_id=$3, office_id=$4, kebele=$5, residency_verified=$6,
            status=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Phone,
		user.RoleID,
		user.OfficeID,
		user.Kebele,
		user.ResidencyVerified,
		user.Status,
		user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE u.id=$1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE LOWER(u.email)=LOWER($1)`, email))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	var w whereBuilder
	if filter.RoleID != nil {
		w.add("u.role_id=%s", *filter.RoleID)
	}
	if filter.BaseRole != nil {
		w.add("r.base_role=%s", string(*filter.BaseRole))
	}
	if filter.OfficeID != nil {
		w.add("u.office_id=%s", *filter.OfficeID)
	}
	if filter.Kebele != nil {
		w.addFold("u.kebele", *filter.Kebele)
	}
	if filter.Status != nil {
		w.add("u.status=%s", string(*filter.Status))
	}
	w.addSearch(filter.Search, "u.name", "u.email")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u JOIN roles r ON r.id = u.role_id`+w.sql(), w.args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, userSelect+w.sql()+` ORDER BY u.created_at DESC`+w.paginate(filter.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *user)
	}
	return result, total, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user  domain.User
		perms []string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.RoleID,
		&user.RoleName,
		&user.Role,
		&perms,
		&user.OfficeID,
		&user.Kebele,
		&user.ResidencyVerified,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Permissions = fromStrings[domain.Permission](perms)
	return &user, nil
}

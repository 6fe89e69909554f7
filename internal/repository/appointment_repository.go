package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// AppointmentFilter scopes appointment listings.
type AppointmentFilter struct {
	ParticipantID *string
	CaseID        *string
	Statuses      []domain.AppointmentStatus
	From          *time.Time
	To            *time.Time
	Page          Page
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	Update(ctx context.Context, appt *domain.Appointment, from domain.AppointmentStatus) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, int, error)
	HasOverlap(ctx context.Context, staffID string, startsAt, endsAt time.Time, excludeID *string) (bool, error)
	DueForReminder(ctx context.Context, now, until time.Time) ([]domain.Appointment, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository creates repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, case_id, client_id, staff_id, starts_at, ends_at, location, purpose, status,
               reminder_sent_at, created_by, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (case_id, client_id, staff_id, starts_at, ends_at, location, purpose, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		appt.CaseID,
		appt.ClientID,
		appt.StaffID,
		appt.StartsAt,
		appt.EndsAt,
		appt.Location,
		appt.Purpose,
		appt.Status,
		appt.CreatedBy,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
}

// Update writes the schedule and status while the stored status is still
// from. Moving the window clears reminder_sent_at so the new time is reminded.
func (r *appointmentRepository) Update(ctx context.Context, appt *domain.Appointment, from domain.AppointmentStatus) error {
	const query = `
        UPDATE appointments SET starts_at=$1, ends_at=$2, location=$3, purpose=$4, status=$5,
            reminder_sent_at=CASE WHEN starts_at=$1 THEN reminder_sent_at END, updated_at=NOW()
        WHERE id=$6 AND status=$7
        RETURNING reminder_sent_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		appt.StartsAt,
		appt.EndsAt,
		appt.Location,
		appt.Purpose,
		appt.Status,
		appt.ID,
		from,
	).Scan(&appt.ReminderSentAt, &appt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStaleRow
	}
	return err
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id=$1`, id))
}

func (r *appointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, int, error) {
	var w whereBuilder
	if filter.ParticipantID != nil {
		w.add("(client_id=%[1]s OR staff_id=%[1]s)", *filter.ParticipantID)
	}
	if filter.CaseID != nil {
		w.add("case_id=%s", *filter.CaseID)
	}
	w.addIn("status", toStrings(filter.Statuses))
	if filter.From != nil {
		w.add("starts_at >= %s", *filter.From)
	}
	if filter.To != nil {
		w.add("starts_at <= %s", *filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments`+w.sql()+` ORDER BY starts_at ASC`+w.paginate(filter.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result, err := scanAppointments(rows)
	return result, total, err
}

// HasOverlap reports whether staffID already holds an active appointment intersecting [startsAt, endsAt).
func (r *appointmentRepository) HasOverlap(ctx context.Context, staffID string, startsAt, endsAt time.Time, excludeID *string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM appointments
            WHERE staff_id=$1
              AND status IN ('SCHEDULED','CONFIRMED')
              AND starts_at < $3 AND ends_at > $2
              AND ($4::uuid IS NULL OR id <> $4::uuid)
        )`
	var exists bool
	err := r.pool.QueryRow(ctx, query, staffID, startsAt, endsAt, excludeID).Scan(&exists)
	return exists, err
}

func (r *appointmentRepository) DueForReminder(ctx context.Context, now, until time.Time) ([]domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
        WHERE status IN ('SCHEDULED','CONFIRMED')
          AND reminder_sent_at IS NULL
          AND starts_at > $1 AND starts_at <= $2
        ORDER BY starts_at ASC
        LIMIT 500`
	rows, err := r.pool.Query(ctx, query, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// MarkReminderSent stamps an active, unreminded appointment. It reports false
// when another run stamped it first or the appointment is no longer active.
func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE appointments SET reminder_sent_at=$1
        WHERE id=$2 AND reminder_sent_at IS NULL AND status IN ('SCHEDULED','CONFIRMED')`, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	var result []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *appt)
	}
	return result, rows.Err()
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.CaseID,
		&appt.ClientID,
		&appt.StaffID,
		&appt.StartsAt,
		&appt.EndsAt,
		&appt.Location,
		&appt.Purpose,
		&appt.Status,
		&appt.ReminderSentAt,
		&appt.CreatedBy,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &appt, nil
}

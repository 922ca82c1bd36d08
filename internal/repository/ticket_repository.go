package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// TicketRepository encapsulates ticket persistence. Transition is the single
// atomic read-modify-write primitive used for status changes.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	// ListActiveByDepartment returns WAITING and IN_PROGRESS tickets ordered
	// by priority descending then booking time ascending, in one read.
	ListActiveByDepartment(ctx context.Context, departmentID string) ([]domain.Ticket, error)
	// Transition loads the ticket under a row lock, applies mutate, and
	// persists the result in the same transaction. An error returned by
	// mutate aborts the transaction and is returned unchanged.
	Transition(ctx context.Context, id string, mutate func(*domain.Ticket) error) (*domain.Ticket, error)
	CountByDepartmentAndStatus(ctx context.Context, departmentID string, status domain.TicketStatus) (int, error)
	CountActiveByDepartment(ctx context.Context, departmentID string) (int, error)
	CountBookedBetweenByStatus(ctx context.Context, departmentID string, from, to time.Time, status *domain.TicketStatus) (int, error)
	AverageWaitMinutes(ctx context.Context, departmentID string) (float64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, user_id, department_id, doctor_id, status, priority,
       booking_time, estimated_wait_minutes, actual_wait_minutes,
       service_start_time, service_end_time, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, user_id, department_id, doctor_id, status, priority,
                             booking_time, estimated_wait_minutes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.UserID,
		ticket.DepartmentID,
		ticket.DoctorID,
		ticket.Status,
		ticket.Priority,
		ticket.BookingTime,
		ticket.EstimatedWaitMinutes,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicketRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY booking_time DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListActiveByDepartment(ctx context.Context, departmentID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
             FROM tickets
             WHERE department_id=$1 AND status = ANY($2)
             ORDER BY priority DESC, booking_time ASC`
	rows, err := r.pool.Query(ctx, query, departmentID, statusStrings(domain.ActiveStatuses))
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Transition(ctx context.Context, id string, mutate func(*domain.Ticket) error) (*domain.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	ticket, err := scanTicketRow(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}

	if err := mutate(ticket); err != nil {
		return nil, err
	}

	const update = `
        UPDATE tickets
        SET status=$1, actual_wait_minutes=$2, service_start_time=$3, service_end_time=$4,
            updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		ticket.Status,
		ticket.ActualWaitMinutes,
		ticket.ServiceStartTime,
		ticket.ServiceEndTime,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) CountByDepartmentAndStatus(ctx context.Context, departmentID string, status domain.TicketStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE department_id=$1 AND status=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, departmentID, status).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return count, nil
}

func (r *ticketRepository) CountActiveByDepartment(ctx context.Context, departmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE department_id=$1 AND status = ANY($2)`
	var count int
	if err := r.pool.QueryRow(ctx, query, departmentID, statusStrings(domain.ActiveStatuses)).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return count, nil
}

func (r *ticketRepository) CountBookedBetweenByStatus(ctx context.Context, departmentID string, from, to time.Time, status *domain.TicketStatus) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE department_id=$1 AND booking_time BETWEEN $2 AND $3`
	args := []any{departmentID, from, to}
	if status != nil {
		args = append(args, *status)
		query += ` AND status=$4`
	}
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return count, nil
}

func (r *ticketRepository) AverageWaitMinutes(ctx context.Context, departmentID string) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(actual_wait_minutes), 0)
        FROM tickets
        WHERE department_id=$1 AND status=$2 AND actual_wait_minutes IS NOT NULL`
	var avg float64
	if err := r.pool.QueryRow(ctx, query, departmentID, domain.TicketStatusCompleted).Scan(&avg); err != nil {
		return 0, apperrors.NewStorageError(err)
	}
	return avg, nil
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.UserID,
		&ticket.DepartmentID,
		&ticket.DoctorID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.BookingTime,
		&ticket.EstimatedWaitMinutes,
		&ticket.ActualWaitMinutes,
		&ticket.ServiceStartTime,
		&ticket.ServiceEndTime,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, apperrors.NewStorageError(err)
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return result, nil
}

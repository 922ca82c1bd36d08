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

// AnalyticsRepository persists rolling queue analytics buckets.
type AnalyticsRepository interface {
	// Mutate loads (creating on first use) the bucket for key under a row
	// lock, applies fn, and persists the result in the same transaction.
	// Concurrent completions into the same bucket serialize here.
	Mutate(ctx context.Context, key domain.BucketKey, fn func(*domain.QueueAnalytics) error) error
	GetByKey(ctx context.Context, key domain.BucketKey) (*domain.QueueAnalytics, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.QueueAnalytics, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository instantiates repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

const analyticsColumns = `id, department_id, date, hour, day_of_week, tickets_count,
       average_wait_minutes, average_service_minutes`

func (r *analyticsRepository) Mutate(ctx context.Context, key domain.BucketKey, fn func(*domain.QueueAnalytics) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO queue_analytics (department_id, date, hour, day_of_week)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (department_id, date, hour) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, key.DepartmentID, key.Date, key.Hour, isoWeekday(key.Date)); err != nil {
		return apperrors.NewStorageError(err)
	}

	query := `SELECT ` + analyticsColumns + `
             FROM queue_analytics
             WHERE department_id=$1 AND date=$2 AND hour=$3
             FOR UPDATE`
	bucket, err := scanBucketRow(tx.QueryRow(ctx, query, key.DepartmentID, key.Date, key.Hour))
	if err != nil {
		return apperrors.NewStorageError(err)
	}

	if err := fn(bucket); err != nil {
		return err
	}

	const update = `
        UPDATE queue_analytics
        SET day_of_week=$1, tickets_count=$2, average_wait_minutes=$3, average_service_minutes=$4
        WHERE id=$5`
	if _, err := tx.Exec(ctx, update,
		bucket.DayOfWeek,
		bucket.TicketsCount,
		bucket.AverageWaitMinutes,
		bucket.AverageServiceMinutes,
		bucket.ID,
	); err != nil {
		return apperrors.NewStorageError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (r *analyticsRepository) GetByKey(ctx context.Context, key domain.BucketKey) (*domain.QueueAnalytics, error) {
	query := `SELECT ` + analyticsColumns + `
             FROM queue_analytics
             WHERE department_id=$1 AND date=$2 AND hour=$3`
	bucket, err := scanBucketRow(r.pool.QueryRow(ctx, query, key.DepartmentID, key.Date, key.Hour))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("analytics bucket", nil)
		}
		return nil, apperrors.NewStorageError(err)
	}
	return bucket, nil
}

func (r *analyticsRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.QueueAnalytics, error) {
	query := `SELECT ` + analyticsColumns + `
             FROM queue_analytics
             WHERE department_id=$1
             ORDER BY date DESC, hour DESC`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	defer rows.Close()

	var result []domain.QueueAnalytics
	for rows.Next() {
		bucket, err := scanBucketRow(rows)
		if err != nil {
			return nil, apperrors.NewStorageError(err)
		}
		result = append(result, *bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return result, nil
}

// isoWeekday maps to 1=Monday..7=Sunday.
func isoWeekday(t time.Time) int {
	if weekday := int(t.Weekday()); weekday != 0 {
		return weekday
	}
	return 7
}

func scanBucketRow(row rowScanner) (*domain.QueueAnalytics, error) {
	var bucket domain.QueueAnalytics
	if err := row.Scan(
		&bucket.ID,
		&bucket.DepartmentID,
		&bucket.Date,
		&bucket.Hour,
		&bucket.DayOfWeek,
		&bucket.TicketsCount,
		&bucket.AverageWaitMinutes,
		&bucket.AverageServiceMinutes,
	); err != nil {
		return nil, err
	}
	return &bucket, nil
}

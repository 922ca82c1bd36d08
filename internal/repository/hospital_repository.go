package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// HospitalRepository encapsulates hospital directory persistence.
type HospitalRepository interface {
	Create(ctx context.Context, hospital *domain.Hospital) error
	GetByID(ctx context.Context, id string) (*domain.Hospital, error)
	List(ctx context.Context) ([]domain.Hospital, error)
}

type hospitalRepository struct {
	pool *pgxpool.Pool
}

// NewHospitalRepository instantiates repository.
func NewHospitalRepository(pool *pgxpool.Pool) HospitalRepository {
	return &hospitalRepository{pool: pool}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *domain.Hospital) error {
	const query = `
        INSERT INTO hospitals (name, address, phone, email)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		hospital.Name,
		hospital.Address,
		hospital.Phone,
		hospital.Email,
	).Scan(&hospital.ID, &hospital.CreatedAt)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (r *hospitalRepository) GetByID(ctx context.Context, id string) (*domain.Hospital, error) {
	const query = `SELECT id, name, address, phone, email, created_at FROM hospitals WHERE id=$1`
	var hospital domain.Hospital
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&hospital.ID,
		&hospital.Name,
		&hospital.Address,
		&hospital.Phone,
		&hospital.Email,
		&hospital.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("hospital", map[string]any{"hospital_id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) List(ctx context.Context) ([]domain.Hospital, error) {
	const query = `SELECT id, name, address, phone, email, created_at FROM hospitals ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	defer rows.Close()

	var result []domain.Hospital
	for rows.Next() {
		var hospital domain.Hospital
		if err := rows.Scan(
			&hospital.ID,
			&hospital.Name,
			&hospital.Address,
			&hospital.Phone,
			&hospital.Email,
			&hospital.CreatedAt,
		); err != nil {
			return nil, apperrors.NewStorageError(err)
		}
		result = append(result, hospital)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return result, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// DoctorRepository encapsulates doctor directory persistence.
type DoctorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Doctor, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Doctor, error)
}

type doctorRepository struct {
	pool *pgxpool.Pool
}

// NewDoctorRepository instantiates repository.
func NewDoctorRepository(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepository{pool: pool}
}

func (r *doctorRepository) GetByID(ctx context.Context, id string) (*domain.Doctor, error) {
	const query = `SELECT id, user_id, department_id, specialization, available FROM doctors WHERE id=$1`
	var doctor domain.Doctor
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.DepartmentID,
		&doctor.Specialization,
		&doctor.Available,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("doctor", map[string]any{"doctor_id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return &doctor, nil
}

func (r *doctorRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Doctor, error) {
	const query = `
        SELECT id, user_id, department_id, specialization, available
        FROM doctors WHERE department_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	defer rows.Close()

	var result []domain.Doctor
	for rows.Next() {
		var doctor domain.Doctor
		if err := rows.Scan(
			&doctor.ID,
			&doctor.UserID,
			&doctor.DepartmentID,
			&doctor.Specialization,
			&doctor.Available,
		); err != nil {
			return nil, apperrors.NewStorageError(err)
		}
		result = append(result, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return result, nil
}

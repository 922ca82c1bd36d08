package service

import (
	"context"
	"strings"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// DirectoryService covers the hospital/department/doctor/user directory.
// Plain CRUD; the queue engine consults it for existence checks and display
// enrichment only.
type DirectoryService struct {
	hospitals   repository.HospitalRepository
	departments repository.DepartmentRepository
	doctors     repository.DoctorRepository
	users       repository.UserRepository
}

// DirectoryDependencies bundles repositories for the directory service.
type DirectoryDependencies struct {
	HospitalRepo   repository.HospitalRepository
	DepartmentRepo repository.DepartmentRepository
	DoctorRepo     repository.DoctorRepository
	UserRepo       repository.UserRepository
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		hospitals:   deps.HospitalRepo,
		departments: deps.DepartmentRepo,
		doctors:     deps.DoctorRepo,
		users:       deps.UserRepo,
	}
}

// ListHospitals returns all facilities.
func (s *DirectoryService) ListHospitals(ctx context.Context) ([]domain.Hospital, error) {
	return s.hospitals.List(ctx)
}

// CreateHospital registers a facility.
func (s *DirectoryService) CreateHospital(ctx context.Context, hospital *domain.Hospital) error {
	if strings.TrimSpace(hospital.Name) == "" {
		return apperrors.NewValidationError("hospital name required", nil)
	}
	return s.hospitals.Create(ctx, hospital)
}

// ListDepartments returns all departments.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.List(ctx)
}

// GetDepartment fetches one department.
func (s *DirectoryService) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	return s.departments.GetByID(ctx, id)
}

// ListDepartmentsByHospital returns a facility's departments.
func (s *DirectoryService) ListDepartmentsByHospital(ctx context.Context, hospitalID string) ([]domain.Department, error) {
	if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}
	return s.departments.ListByHospital(ctx, hospitalID)
}

// CreateDepartment registers a department under an existing hospital.
func (s *DirectoryService) CreateDepartment(ctx context.Context, department *domain.Department) error {
	if strings.TrimSpace(department.Name) == "" {
		return apperrors.NewValidationError("department name required", nil)
	}
	if _, err := s.hospitals.GetByID(ctx, department.HospitalID); err != nil {
		return err
	}
	if department.AverageServiceMinutes <= 0 {
		department.AverageServiceMinutes = 15
	}
	return s.departments.Create(ctx, department)
}

// ListDoctorsByDepartment returns the practitioners attached to a department.
func (s *DirectoryService) ListDoctorsByDepartment(ctx context.Context, departmentID string) ([]domain.Doctor, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.doctors.ListByDepartment(ctx, departmentID)
}

// GetUser fetches one directory user.
func (s *DirectoryService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// CreateUser registers a patient record.
func (s *DirectoryService) CreateUser(ctx context.Context, user *domain.User) error {
	if strings.TrimSpace(user.FullName) == "" {
		return apperrors.NewValidationError("full name required", nil)
	}
	return s.users.Create(ctx, user)
}

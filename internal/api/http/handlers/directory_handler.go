package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// DirectoryHandler exposes hospital/department/doctor/user directory routes.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListHospitals GET /api/hospitals.
func (h *DirectoryHandler) ListHospitals(c *fiber.Ctx) error {
	hospitals, err := h.directory.ListHospitals(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": hospitals})
}

// CreateHospital POST /api/hospitals.
func (h *DirectoryHandler) CreateHospital(c *fiber.Ctx) error {
	var req dto.CreateHospitalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	hospital := &domain.Hospital{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if err := h.directory.CreateHospital(c.UserContext(), hospital); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": hospital})
}

// ListDepartments GET /api/departments.
func (h *DirectoryHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.directory.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departments})
}

// GetDepartment GET /api/departments/:id.
func (h *DirectoryHandler) GetDepartment(c *fiber.Ctx) error {
	department, err := h.directory.GetDepartment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": department})
}

// ListDepartmentsByHospital GET /api/departments/hospital/:hospitalId.
func (h *DirectoryHandler) ListDepartmentsByHospital(c *fiber.Ctx) error {
	departments, err := h.directory.ListDepartmentsByHospital(c.UserContext(), c.Params("hospitalId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departments})
}

// CreateDepartment POST /api/departments.
func (h *DirectoryHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HospitalID == "" {
		return apperrors.NewValidationError("hospital_id required", nil)
	}
	department := &domain.Department{
		HospitalID:            req.HospitalID,
		Name:                  req.Name,
		Description:           req.Description,
		AverageServiceMinutes: req.AverageServiceMinutes,
	}
	if err := h.directory.CreateDepartment(c.UserContext(), department); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": department})
}

// ListDoctorsByDepartment GET /api/departments/:id/doctors.
func (h *DirectoryHandler) ListDoctorsByDepartment(c *fiber.Ctx) error {
	doctors, err := h.directory.ListDoctorsByDepartment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": doctors})
}

// GetUser GET /api/users/:id.
func (h *DirectoryHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.directory.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": user})
}

// CreateUser POST /api/users.
func (h *DirectoryHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user := &domain.User{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if err := h.directory.CreateUser(c.UserContext(), user); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": user})
}

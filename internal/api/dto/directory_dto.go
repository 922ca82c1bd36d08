package dto

// CreateHospitalRequest payload.
type CreateHospitalRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	HospitalID            string `json:"hospital_id"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	AverageServiceMinutes int    `json:"average_service_minutes"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

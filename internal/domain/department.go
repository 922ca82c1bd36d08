package domain

import "time"

// Department represents a service queue owner within a hospital.
type Department struct {
	ID                    string
	HospitalID            string
	Name                  string
	Description           string
	AverageServiceMinutes int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

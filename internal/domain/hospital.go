package domain

import "time"

// Hospital groups departments under one facility.
type Hospital struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// Doctor links a directory user to a department.
type Doctor struct {
	ID             string
	UserID         string
	DepartmentID   string
	Specialization string
	Available      bool
}

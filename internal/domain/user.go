package domain

import "time"

// User is the directory record for a patient who books tickets.
type User struct {
	ID        string
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

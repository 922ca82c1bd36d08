package domain

import "time"

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that keep a ticket in the visible queue.
var ActiveStatuses = []TicketStatus{TicketStatusWaiting, TicketStatusInProgress}

// IsValid reports whether s is a known status value.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusWaiting, TicketStatusInProgress, TicketStatusCompleted, TicketStatusCancelled:
		return true
	}
	return false
}

// Ticket is the aggregate for one patient's claim on a department queue.
//
// ServiceStartTime is set exactly once, at the WAITING -> IN_PROGRESS
// transition, together with ActualWaitMinutes. ServiceEndTime is set at the
// transition to COMPLETED.
type Ticket struct {
	ID                   string
	TicketNumber         string
	UserID               string
	DepartmentID         string
	DoctorID             *string
	Status               TicketStatus
	Priority             int
	BookingTime          time.Time
	EstimatedWaitMinutes int
	ActualWaitMinutes    *int
	ServiceStartTime     *time.Time
	ServiceEndTime       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

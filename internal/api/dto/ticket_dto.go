package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	UserID       string  `json:"user_id"`
	DepartmentID string  `json:"department_id"`
	DoctorID     *string `json:"doctor_id,omitempty"`
	Priority     int     `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse is the ticket view returned to callers. QueuePosition is a
// derived value, 1-indexed within the active department queue, zero once the
// ticket has left the queue.
type TicketResponse struct {
	ID                   string              `json:"id"`
	TicketNumber         string              `json:"ticket_number"`
	UserID               string              `json:"user_id"`
	DepartmentID         string              `json:"department_id"`
	DoctorID             *string             `json:"doctor_id,omitempty"`
	Status               domain.TicketStatus `json:"status"`
	Priority             int                 `json:"priority"`
	BookingTime          time.Time           `json:"booking_time"`
	EstimatedWaitMinutes int                 `json:"estimated_wait_minutes"`
	ActualWaitMinutes    *int                `json:"actual_wait_minutes,omitempty"`
	QueuePosition        int                 `json:"queue_position"`
	ServiceStartTime     *time.Time          `json:"service_start_time,omitempty"`
	ServiceEndTime       *time.Time          `json:"service_end_time,omitempty"`
}

// TicketView maps a domain ticket into the response shape.
func TicketView(ticket *domain.Ticket, position int) TicketResponse {
	return TicketResponse{
		ID:                   ticket.ID,
		TicketNumber:         ticket.TicketNumber,
		UserID:               ticket.UserID,
		DepartmentID:         ticket.DepartmentID,
		DoctorID:             ticket.DoctorID,
		Status:               ticket.Status,
		Priority:             ticket.Priority,
		BookingTime:          ticket.BookingTime,
		EstimatedWaitMinutes: ticket.EstimatedWaitMinutes,
		ActualWaitMinutes:    ticket.ActualWaitMinutes,
		QueuePosition:        position,
		ServiceStartTime:     ticket.ServiceStartTime,
		ServiceEndTime:       ticket.ServiceEndTime,
	}
}

// TodayStatsResponse is the dashboard summary for one department.
type TodayStatsResponse struct {
	TotalTickets       int     `json:"total_tickets"`
	Completed          int     `json:"completed"`
	Waiting            int     `json:"waiting"`
	Cancelled          int     `json:"cancelled"`
	AverageWaitMinutes float64 `json:"average_wait_minutes"`
	CurrentQueueLength int     `json:"current_queue_length"`
}

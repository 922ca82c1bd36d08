package events

import (
	"fmt"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// Topic names follow "queue.<department>[.<kind>]" for department fan-out and
// "user.<id>.<kind>" for direct per-user channels.
func TopicQueue(departmentID string) string {
	return "queue." + departmentID
}

func TopicQueueNew(departmentID string) string {
	return "queue." + departmentID + ".new"
}

func TopicQueueStatus(departmentID string) string {
	return "queue." + departmentID + ".status"
}

func TopicQueueStats(departmentID string) string {
	return "queue." + departmentID + ".stats"
}

func TopicQueueCancelled(departmentID string) string {
	return "queue." + departmentID + ".cancelled"
}

func TopicUserNotifications(userID string) string {
	return "user." + userID + ".notifications"
}

func TopicUserCall(userID string) string {
	return "user." + userID + ".call"
}

// TicketCreated announces a new ticket on the department channel.
type TicketCreated struct {
	EventID              string              `json:"event_id"`
	TicketID             string              `json:"ticket_id"`
	TicketNumber         string              `json:"ticket_number"`
	DepartmentID         string              `json:"department_id"`
	UserID               string              `json:"user_id"`
	Priority             int                 `json:"priority"`
	Status               domain.TicketStatus `json:"status"`
	EstimatedWaitMinutes int                 `json:"estimated_wait_minutes"`
	QueuePosition        int                 `json:"queue_position"`
	Timestamp            time.Time           `json:"timestamp"`
}

// StatusChanged announces a ticket transition on the department channel.
type StatusChanged struct {
	EventID      string              `json:"event_id"`
	TicketID     string              `json:"ticket_id"`
	TicketNumber string              `json:"ticket_number"`
	DepartmentID string              `json:"department_id"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	Timestamp    time.Time           `json:"timestamp"`
}

// TicketCancelled is broadcast on the department cancellation channel.
type TicketCancelled struct {
	EventID      string    `json:"event_id"`
	TicketID     string    `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	DepartmentID string    `json:"department_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// QueueStats is the recomputed per-department snapshot broadcast after every
// successful mutation so dashboards stay consistent.
type QueueStats struct {
	DepartmentID       string    `json:"department_id"`
	WaitingCount       int       `json:"waiting_count"`
	QueueLength        int       `json:"queue_length"`
	AverageWaitMinutes float64   `json:"average_wait_minutes"`
	Timestamp          time.Time `json:"timestamp"`
}

// UserNotification is a direct message on a per-user channel.
type UserNotification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnCall tells a user to proceed to the department counter.
type TurnCall struct {
	TicketNumber   string    `json:"ticket_number"`
	DepartmentName string    `json:"department_name"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewTurnCall builds the call payload for a user whose turn has come.
func NewTurnCall(ticketNumber, departmentName string, at time.Time) TurnCall {
	return TurnCall{
		TicketNumber:   ticketNumber,
		DepartmentName: departmentName,
		Message:        fmt.Sprintf("Your turn! Please proceed to %s", departmentName),
		Timestamp:      at,
	}
}

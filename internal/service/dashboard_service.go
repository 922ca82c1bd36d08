package service

import (
	"context"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
)

// TodayStats summarizes a department's day for the dashboard.
type TodayStats struct {
	TotalTickets       int
	Completed          int
	Waiting            int
	Cancelled          int
	AverageWaitMinutes float64
	CurrentQueueLength int
}

// DashboardService derives daily per-department statistics from the store.
type DashboardService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets, now: time.Now}
}

// GetTodayStats counts today's bookings by outcome plus the live queue state.
func (s *DashboardService) GetTodayStats(ctx context.Context, departmentID string) (*TodayStats, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	total, err := s.tickets.CountBookedBetweenByStatus(ctx, departmentID, startOfDay, endOfDay, nil)
	if err != nil {
		return nil, err
	}
	completedStatus := domain.TicketStatusCompleted
	completed, err := s.tickets.CountBookedBetweenByStatus(ctx, departmentID, startOfDay, endOfDay, &completedStatus)
	if err != nil {
		return nil, err
	}
	cancelledStatus := domain.TicketStatusCancelled
	cancelled, err := s.tickets.CountBookedBetweenByStatus(ctx, departmentID, startOfDay, endOfDay, &cancelledStatus)
	if err != nil {
		return nil, err
	}
	waiting, err := s.tickets.CountByDepartmentAndStatus(ctx, departmentID, domain.TicketStatusWaiting)
	if err != nil {
		return nil, err
	}
	avgWait, err := s.tickets.AverageWaitMinutes(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	queueLength, err := s.tickets.CountActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	return &TodayStats{
		TotalTickets:       total,
		Completed:          completed,
		Waiting:            waiting,
		Cancelled:          cancelled,
		AverageWaitMinutes: avgWait,
		CurrentQueueLength: queueLength,
	}, nil
}

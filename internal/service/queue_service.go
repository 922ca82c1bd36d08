package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/estimator"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// SequenceProvider hands out department-scoped daily ticket sequence numbers.
// When unavailable the engine falls back to a random suffix.
type SequenceProvider interface {
	NextTicketSeq(ctx context.Context, departmentID string, day time.Time) (int64, error)
}

// QueueService is the queue admission and transition engine. It owns ticket
// lifecycle transitions exclusively; no other component mutates ticket status.
type QueueService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	estimator   estimator.Estimator
	analytics   *AnalyticsService
	broadcaster events.Broadcaster
	sequence    SequenceProvider
	logger      *zap.Logger

	fallbackWaitMinutes int
	now                 func() time.Time
}

// QueueDependencies bundles collaborators for the engine.
type QueueDependencies struct {
	TicketRepo          repository.TicketRepository
	UserRepo            repository.UserRepository
	DepartmentRepo      repository.DepartmentRepository
	Estimator           estimator.Estimator
	Analytics           *AnalyticsService
	Broadcaster         events.Broadcaster
	Sequence            SequenceProvider
	Logger              *zap.Logger
	FallbackWaitMinutes int
}

// CreateTicketInput describes an admission request.
type CreateTicketInput struct {
	UserID       string
	DepartmentID string
	DoctorID     *string
	Priority     int
}

// NewQueueService constructs the engine.
func NewQueueService(deps QueueDependencies) *QueueService {
	fallback := deps.FallbackWaitMinutes
	if fallback <= 0 {
		fallback = 25
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	broadcaster := deps.Broadcaster
	if broadcaster == nil {
		broadcaster = events.NopBroadcaster{}
	}
	return &QueueService{
		tickets:             deps.TicketRepo,
		users:               deps.UserRepo,
		departments:         deps.DepartmentRepo,
		estimator:           deps.Estimator,
		analytics:           deps.Analytics,
		broadcaster:         broadcaster,
		sequence:            deps.Sequence,
		logger:              logger,
		fallbackWaitMinutes: fallback,
		now:                 time.Now,
	}
}

// CreateTicket admits a user into a department queue. The estimator is
// consulted under a bounded timeout; its failure degrades to the fallback
// estimate and never fails admission. Returns the persisted ticket and its
// 1-indexed queue position.
func (s *QueueService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, int, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, 0, err
	}
	department, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		TicketNumber:         s.generateTicketNumber(ctx, department.ID, now),
		UserID:               user.ID,
		DepartmentID:         department.ID,
		DoctorID:             input.DoctorID,
		Status:               domain.TicketStatusWaiting,
		Priority:             input.Priority,
		BookingTime:          now,
		EstimatedWaitMinutes: s.estimateWait(ctx, department.ID),
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, 0, err
	}

	position := s.queuePosition(ctx, ticket)
	s.publish(ctx, events.TopicQueueNew(department.ID), events.TicketCreated{
		EventID:              newEventID(),
		TicketID:             ticket.ID,
		TicketNumber:         ticket.TicketNumber,
		DepartmentID:         department.ID,
		UserID:               user.ID,
		Priority:             ticket.Priority,
		Status:               ticket.Status,
		EstimatedWaitMinutes: ticket.EstimatedWaitMinutes,
		QueuePosition:        position,
		Timestamp:            now,
	})
	s.publishQueueStats(ctx, department.ID)
	s.publish(ctx, events.TopicUserNotifications(user.ID), events.UserNotification{
		Type:      "ticket_created",
		Message:   fmt.Sprintf("Ticket %s created. Estimated wait: %d minutes", ticket.TicketNumber, ticket.EstimatedWaitMinutes),
		Timestamp: now,
	})

	return ticket, position, nil
}

// GetUserTickets lists a user's tickets, most recent first.
func (s *QueueService) GetUserTickets(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// GetDepartmentQueue returns the active queue in service order: priority
// descending, booking time ascending. Queue position is the 1-indexed slot in
// this sequence, recomputed from a single read on every call.
func (s *QueueService) GetDepartmentQueue(ctx context.Context, departmentID string) ([]domain.Ticket, error) {
	return s.tickets.ListActiveByDepartment(ctx, departmentID)
}

// QueuePosition locates the ticket in its department's current queue.
// Returns 0 for tickets no longer in the queue.
func (s *QueueService) QueuePosition(ctx context.Context, ticket *domain.Ticket) int {
	return s.queuePosition(ctx, ticket)
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusWaiting:    {domain.TicketStatusInProgress, domain.TicketStatusCompleted, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress: {domain.TicketStatusCompleted, domain.TicketStatusCancelled},
	domain.TicketStatusCompleted:  {},
	domain.TicketStatusCancelled:  {},
}

func isAllowedTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// UpdateStatus applies a lifecycle transition. The check-then-mutate sequence
// runs inside a row-locked transaction so two concurrent callers cannot both
// observe WAITING and both start service. Repeating the current status is a
// no-op and emits nothing.
func (s *QueueService) UpdateStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(newStatus)})
	}

	var (
		noop           bool
		oldStatus      domain.TicketStatus
		serviceMinutes *int
	)
	ticket, err := s.tickets.Transition(ctx, ticketID, func(t *domain.Ticket) error {
		oldStatus = t.Status
		if t.Status == newStatus {
			noop = true
			return nil
		}
		if !isAllowedTransition(t.Status, newStatus) {
			return apperrors.NewInvalidTransition(string(t.Status), string(newStatus))
		}

		now := s.now()
		switch newStatus {
		case domain.TicketStatusInProgress:
			t.ServiceStartTime = &now
			wait := int(now.Sub(t.BookingTime).Minutes())
			t.ActualWaitMinutes = &wait
		case domain.TicketStatusCompleted:
			t.ServiceEndTime = &now
			if t.ServiceStartTime != nil {
				minutes := int(now.Sub(*t.ServiceStartTime).Minutes())
				serviceMinutes = &minutes
			}
		case domain.TicketStatusCancelled:
			// no field changes beyond status
		}
		t.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		return ticket, nil
	}

	if newStatus == domain.TicketStatusCompleted && serviceMinutes != nil && s.analytics != nil {
		if err := s.analytics.RecordCompletion(ctx, ticket.DepartmentID, ticket.BookingTime, ticket.ActualWaitMinutes, *serviceMinutes); err != nil {
			s.logger.Error("record completion failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}

	now := s.now()
	s.publish(ctx, events.TopicQueueStatus(ticket.DepartmentID), events.StatusChanged{
		EventID:      newEventID(),
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		DepartmentID: ticket.DepartmentID,
		OldStatus:    oldStatus,
		NewStatus:    ticket.Status,
		Timestamp:    now,
	})

	switch newStatus {
	case domain.TicketStatusInProgress:
		s.publish(ctx, events.TopicUserCall(ticket.UserID),
			events.NewTurnCall(ticket.TicketNumber, s.departmentName(ctx, ticket.DepartmentID), now))
	case domain.TicketStatusCompleted:
		s.publish(ctx, events.TopicUserNotifications(ticket.UserID), events.UserNotification{
			Type:      "ticket_completed",
			Message:   fmt.Sprintf("Ticket %s completed. Thank you for your visit", ticket.TicketNumber),
			Timestamp: now,
		})
	case domain.TicketStatusCancelled:
		s.publish(ctx, events.TopicQueueCancelled(ticket.DepartmentID), events.TicketCancelled{
			EventID:      newEventID(),
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			DepartmentID: ticket.DepartmentID,
			Timestamp:    now,
		})
		s.publish(ctx, events.TopicUserNotifications(ticket.UserID), events.UserNotification{
			Type:      "ticket_cancelled",
			Message:   fmt.Sprintf("Ticket %s has been cancelled", ticket.TicketNumber),
			Timestamp: now,
		})
	}

	// every successful transition refreshes the department snapshot, so
	// dashboards stay consistent even on cancellations
	s.publishQueueStats(ctx, ticket.DepartmentID)

	return ticket, nil
}

func (s *QueueService) queuePosition(ctx context.Context, ticket *domain.Ticket) int {
	if ticket.Status != domain.TicketStatusWaiting && ticket.Status != domain.TicketStatusInProgress {
		return 0
	}
	queue, err := s.tickets.ListActiveByDepartment(ctx, ticket.DepartmentID)
	if err != nil {
		s.logger.Warn("queue position lookup failed",
			zap.String("department_id", ticket.DepartmentID),
			zap.Error(err))
		return 0
	}
	for i := range queue {
		if queue[i].ID == ticket.ID {
			return i + 1
		}
	}
	return 0
}

func (s *QueueService) estimateWait(ctx context.Context, departmentID string) int {
	if s.estimator == nil {
		return s.fallbackWaitMinutes
	}
	minutes, err := s.estimator.PredictWait(ctx, departmentID)
	if err != nil {
		s.logger.Warn("wait estimate unavailable, using fallback",
			zap.String("department_id", departmentID),
			zap.Int("fallback_minutes", s.fallbackWaitMinutes),
			zap.Error(err))
		return s.fallbackWaitMinutes
	}
	return minutes
}

// generateTicketNumber prefers a department-scoped daily counter for
// guaranteed uniqueness and degrades to a random 3-digit suffix when the
// sequence store is unreachable.
func (s *QueueService) generateTicketNumber(ctx context.Context, departmentID string, now time.Time) string {
	timestamp := now.Format("20060102150405")
	if s.sequence != nil {
		if seq, err := s.sequence.NextTicketSeq(ctx, departmentID, now); err == nil {
			return fmt.Sprintf("D%s-%s-%03d", departmentID, timestamp, seq)
		} else {
			s.logger.Warn("ticket sequence unavailable, using random suffix", zap.Error(err))
		}
	}
	return fmt.Sprintf("D%s-%s-%03d", departmentID, timestamp, rand.Intn(1000))
}

func (s *QueueService) publishQueueStats(ctx context.Context, departmentID string) {
	waiting, err := s.tickets.CountByDepartmentAndStatus(ctx, departmentID, domain.TicketStatusWaiting)
	if err != nil {
		s.logger.Warn("queue stats snapshot failed", zap.String("department_id", departmentID), zap.Error(err))
		return
	}
	length, err := s.tickets.CountActiveByDepartment(ctx, departmentID)
	if err != nil {
		s.logger.Warn("queue stats snapshot failed", zap.String("department_id", departmentID), zap.Error(err))
		return
	}
	avgWait, err := s.tickets.AverageWaitMinutes(ctx, departmentID)
	if err != nil {
		s.logger.Warn("queue stats snapshot failed", zap.String("department_id", departmentID), zap.Error(err))
		return
	}
	s.publish(ctx, events.TopicQueueStats(departmentID), events.QueueStats{
		DepartmentID:       departmentID,
		WaitingCount:       waiting,
		QueueLength:        length,
		AverageWaitMinutes: avgWait,
		Timestamp:          s.now(),
	})
}

func (s *QueueService) departmentName(ctx context.Context, departmentID string) string {
	department, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return departmentID
	}
	return department.Name
}

func newEventID() string {
	return uuid.NewString()
}

// publish is fire-and-forget: delivery failures are logged and never affect
// the originating operation.
func (s *QueueService) publish(ctx context.Context, topic string, payload any) {
	if err := s.broadcaster.Publish(ctx, topic, payload); err != nil {
		s.logger.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

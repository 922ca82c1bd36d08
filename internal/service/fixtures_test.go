package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// memTicketRepo is an in-memory TicketRepository. Transition serializes on a
// mutex, mirroring the row lock the Postgres implementation takes.
type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	failAll bool
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return apperrors.NewStorageError(errors.New("store down"))
	}
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = ticket.BookingTime
	ticket.UpdatedAt = ticket.BookingTime
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	clone := *ticket
	return &clone, nil
}

func (r *memTicketRepo) ListByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.UserID == userID {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BookingTime.After(result[j].BookingTime)
	})
	return result, nil
}

func (r *memTicketRepo) ListActiveByDepartment(_ context.Context, departmentID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.DepartmentID != departmentID {
			continue
		}
		if ticket.Status == domain.TicketStatusWaiting || ticket.Status == domain.TicketStatusInProgress {
			result = append(result, *ticket)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].BookingTime.Before(result[j].BookingTime)
	})
	return result, nil
}

func (r *memTicketRepo) Transition(_ context.Context, id string, mutate func(*domain.Ticket) error) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, apperrors.NewStorageError(errors.New("store down"))
	}
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	working := *ticket
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	r.tickets[id] = &working
	clone := working
	return &clone, nil
}

func (r *memTicketRepo) CountByDepartmentAndStatus(_ context.Context, departmentID string, status domain.TicketStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.tickets {
		if ticket.DepartmentID == departmentID && ticket.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountActiveByDepartment(_ context.Context, departmentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.tickets {
		if ticket.DepartmentID != departmentID {
			continue
		}
		if ticket.Status == domain.TicketStatusWaiting || ticket.Status == domain.TicketStatusInProgress {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountBookedBetweenByStatus(_ context.Context, departmentID string, from, to time.Time, status *domain.TicketStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.tickets {
		if ticket.DepartmentID != departmentID {
			continue
		}
		if ticket.BookingTime.Before(from) || ticket.BookingTime.After(to) {
			continue
		}
		if status != nil && ticket.Status != *status {
			continue
		}
		count++
	}
	return count, nil
}

func (r *memTicketRepo) AverageWaitMinutes(_ context.Context, departmentID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum, n := 0, 0
	for _, ticket := range r.tickets {
		if ticket.DepartmentID == departmentID &&
			ticket.Status == domain.TicketStatusCompleted &&
			ticket.ActualWaitMinutes != nil {
			sum += *ticket.ActualWaitMinutes
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// memUserRepo holds directory users by id.
type memUserRepo struct {
	users map[string]*domain.User
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	return user, nil
}

// memDepartmentRepo holds directory departments by id.
type memDepartmentRepo struct {
	departments map[string]*domain.Department
}

func newMemDepartmentRepo(departments ...*domain.Department) *memDepartmentRepo {
	repo := &memDepartmentRepo{departments: make(map[string]*domain.Department)}
	for _, department := range departments {
		repo.departments[department.ID] = department
	}
	return repo
}

func (r *memDepartmentRepo) Create(_ context.Context, department *domain.Department) error {
	r.departments[department.ID] = department
	return nil
}

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	department, ok := r.departments[id]
	if !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
	}
	return department, nil
}

func (r *memDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, department := range r.departments {
		result = append(result, *department)
	}
	return result, nil
}

func (r *memDepartmentRepo) ListByHospital(_ context.Context, hospitalID string) ([]domain.Department, error) {
	var result []domain.Department
	for _, department := range r.departments {
		if department.HospitalID == hospitalID {
			result = append(result, *department)
		}
	}
	return result, nil
}

// memAnalyticsRepo serializes bucket mutations on a mutex, like the
// transactional Postgres implementation.
type memAnalyticsRepo struct {
	mu      sync.Mutex
	buckets map[domain.BucketKey]*domain.QueueAnalytics
}

func newMemAnalyticsRepo() *memAnalyticsRepo {
	return &memAnalyticsRepo{buckets: make(map[domain.BucketKey]*domain.QueueAnalytics)}
}

func (r *memAnalyticsRepo) Mutate(_ context.Context, key domain.BucketKey, fn func(*domain.QueueAnalytics) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.buckets[key]
	if !ok {
		bucket = &domain.QueueAnalytics{
			DepartmentID: key.DepartmentID,
			Date:         key.Date,
			Hour:         key.Hour,
		}
		r.buckets[key] = bucket
	}
	return fn(bucket)
}

func (r *memAnalyticsRepo) GetByKey(_ context.Context, key domain.BucketKey) (*domain.QueueAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.buckets[key]
	if !ok {
		return nil, apperrors.NewNotFound("analytics bucket", nil)
	}
	clone := *bucket
	return &clone, nil
}

func (r *memAnalyticsRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.QueueAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.QueueAnalytics
	for _, bucket := range r.buckets {
		if bucket.DepartmentID == departmentID {
			result = append(result, *bucket)
		}
	}
	return result, nil
}

// stubEstimator returns a fixed estimate or error.
type stubEstimator struct {
	minutes int
	err     error
}

func (e *stubEstimator) PredictWait(context.Context, string) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	return e.minutes, nil
}

// recordingBroadcaster captures every publish for assertions.
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	topic   string
	payload any
}

func (b *recordingBroadcaster) Publish(_ context.Context, topic string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, publishedMessage{topic: topic, payload: payload})
	return nil
}

func (b *recordingBroadcaster) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.messages))
	for _, msg := range b.messages {
		out = append(out, msg.topic)
	}
	return out
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

// stubSequence mimics the Redis daily counter.
type stubSequence struct {
	mu   sync.Mutex
	next int64
	err  error
}

func (s *stubSequence) NextTicketSeq(context.Context, string, time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.next++
	return s.next, nil
}

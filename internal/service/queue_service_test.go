package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

type queueFixture struct {
	queue       *QueueService
	tickets     *memTicketRepo
	analytics   *memAnalyticsRepo
	broadcaster *recordingBroadcaster
	estimator   *stubEstimator
	sequence    *stubSequence
	clock       time.Time
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	fixture := &queueFixture{
		tickets:     newMemTicketRepo(),
		analytics:   newMemAnalyticsRepo(),
		broadcaster: &recordingBroadcaster{},
		estimator:   &stubEstimator{minutes: 12},
		sequence:    &stubSequence{},
		clock:       time.Date(2026, time.March, 9, 10, 30, 0, 0, time.UTC),
	}
	users := newMemUserRepo(&domain.User{ID: "user-1", FullName: "Ada Kimani"})
	departments := newMemDepartmentRepo(&domain.Department{ID: "7", Name: "Cardiology", AverageServiceMinutes: 15})

	fixture.queue = NewQueueService(QueueDependencies{
		TicketRepo:          fixture.tickets,
		UserRepo:            users,
		DepartmentRepo:      departments,
		Estimator:           fixture.estimator,
		Analytics:           NewAnalyticsService(fixture.analytics),
		Broadcaster:         fixture.broadcaster,
		Sequence:            fixture.sequence,
		FallbackWaitMinutes: 25,
	})
	fixture.queue.now = func() time.Time { return fixture.clock }
	return fixture
}

func (f *queueFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *queueFixture) create(t *testing.T, priority int) *domain.Ticket {
	t.Helper()
	ticket, _, err := f.queue.CreateTicket(context.Background(), CreateTicketInput{
		UserID:       "user-1",
		DepartmentID: "7",
		Priority:     priority,
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicket(t *testing.T) {
	fixture := newQueueFixture(t)

	ticket, position, err := fixture.queue.CreateTicket(context.Background(), CreateTicketInput{
		UserID:       "user-1",
		DepartmentID: "7",
		Priority:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusWaiting, ticket.Status)
	assert.Equal(t, 2, ticket.Priority)
	assert.Equal(t, 12, ticket.EstimatedWaitMinutes)
	assert.Equal(t, 1, position)
	assert.Equal(t, fixture.clock, ticket.BookingTime)
	assert.Regexp(t, regexp.MustCompile(`^D7-20260309103000-\d{3}$`), ticket.TicketNumber)

	topics := fixture.broadcaster.topics()
	assert.Contains(t, topics, events.TopicQueueNew("7"))
	assert.Contains(t, topics, events.TopicQueueStats("7"))
	assert.Contains(t, topics, events.TopicUserNotifications("user-1"))
}

func TestCreateTicketSequentialNumbers(t *testing.T) {
	fixture := newQueueFixture(t)

	first := fixture.create(t, 0)
	second := fixture.create(t, 0)

	assert.Equal(t, "D7-20260309103000-001", first.TicketNumber)
	assert.Equal(t, "D7-20260309103000-002", second.TicketNumber)
}

func TestCreateTicketSequenceFallback(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.sequence.err = errors.New("redis down")

	ticket := fixture.create(t, 0)
	assert.Regexp(t, regexp.MustCompile(`^D7-\d{14}-\d{3}$`), ticket.TicketNumber)
}

func TestCreateTicketEstimatorFailureUsesFallback(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.estimator.err = apperrors.NewUnavailable("estimator", errors.New("timeout"))

	ticket, _, err := fixture.queue.CreateTicket(context.Background(), CreateTicketInput{
		UserID:       "user-1",
		DepartmentID: "7",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, ticket.EstimatedWaitMinutes)
}

func TestCreateTicketUnknownUser(t *testing.T) {
	fixture := newQueueFixture(t)

	_, _, err := fixture.queue.CreateTicket(context.Background(), CreateTicketInput{
		UserID:       "nobody",
		DepartmentID: "7",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, fixture.broadcaster.topics())
}

func TestCreateTicketUnknownDepartment(t *testing.T) {
	fixture := newQueueFixture(t)

	_, _, err := fixture.queue.CreateTicket(context.Background(), CreateTicketInput{
		UserID:       "user-1",
		DepartmentID: "99",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateTicketStorageFailureEmitsNothing(t *testing.T) {
	fixture := newQueueFixture(t)
	fixture.tickets.failAll = true

	_, _, err := fixture.queue.CreateTicket(context.Background(), CreateTicketInput{
		UserID:       "user-1",
		DepartmentID: "7",
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STORAGE_ERROR", domainErr.Code)
	assert.Empty(t, fixture.broadcaster.topics())
}

func TestDepartmentQueueOrdering(t *testing.T) {
	fixture := newQueueFixture(t)

	low := fixture.create(t, 0)
	fixture.advance(time.Second)
	high := fixture.create(t, 5)
	fixture.advance(time.Second)
	lowLater := fixture.create(t, 0)

	queue, err := fixture.queue.GetDepartmentQueue(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, high.ID, queue[0].ID)
	assert.Equal(t, low.ID, queue[1].ID)
	assert.Equal(t, lowLater.ID, queue[2].ID)
}

func TestQueuePositionShiftsWithHigherPriority(t *testing.T) {
	fixture := newQueueFixture(t)

	first := fixture.create(t, 0)
	got, err := fixture.tickets.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.queue.QueuePosition(context.Background(), got))

	fixture.advance(time.Second)
	fixture.create(t, 5)

	assert.Equal(t, 2, fixture.queue.QueuePosition(context.Background(), got))
}

func TestUpdateStatusWaitingToInProgress(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)
	fixture.broadcaster.reset()

	fixture.advance(17*time.Minute + 45*time.Second)
	updated, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	require.NotNil(t, updated.ServiceStartTime)
	assert.Equal(t, fixture.clock, *updated.ServiceStartTime)
	require.NotNil(t, updated.ActualWaitMinutes)
	assert.Equal(t, 17, *updated.ActualWaitMinutes, "wait minutes are truncated")
	assert.Nil(t, updated.ServiceEndTime)

	topics := fixture.broadcaster.topics()
	assert.Contains(t, topics, events.TopicQueueStatus("7"))
	assert.Contains(t, topics, events.TopicUserCall("user-1"))
	assert.Contains(t, topics, events.TopicQueueStats("7"))
}

func TestUpdateStatusCompletionFeedsAnalytics(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)

	fixture.advance(10 * time.Minute)
	_, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)

	fixture.advance(20 * time.Minute)
	updated, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)

	require.NotNil(t, updated.ServiceEndTime)
	assert.Equal(t, fixture.clock, *updated.ServiceEndTime)

	bucket, err := fixture.analytics.GetByKey(context.Background(), domain.BucketKey{
		DepartmentID: "7",
		Date:         time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		Hour:         10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bucket.TicketsCount)
	assert.Equal(t, "20", bucket.AverageServiceMinutes.String())
	assert.Equal(t, "10", bucket.AverageWaitMinutes.String())
}

func TestUpdateStatusCompletionWithoutServiceStartSkipsAnalytics(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)

	// direct Waiting -> Completed, no service window to measure
	updated, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, updated.ServiceStartTime)
	require.NotNil(t, updated.ServiceEndTime)

	buckets, err := fixture.analytics.ListByDepartment(context.Background(), "7")
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestUpdateStatusCancelledEmitsBroadcastAndStats(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)
	fixture.broadcaster.reset()

	updated, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCancelled, updated.Status)
	assert.Nil(t, updated.ServiceStartTime)
	assert.Nil(t, updated.ActualWaitMinutes)

	topics := fixture.broadcaster.topics()
	assert.Contains(t, topics, events.TopicQueueCancelled("7"))
	assert.Contains(t, topics, events.TopicUserNotifications("user-1"))
	assert.Contains(t, topics, events.TopicQueueStats("7"))
}

func TestUpdateStatusInvalidTransitionLeavesTicketUnchanged(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)

	_, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)
	before, err := fixture.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	fixture.broadcaster.reset()

	_, err = fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress)
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	assert.Equal(t, "COMPLETED", domainErr.Details["current_status"])
	assert.Equal(t, "IN_PROGRESS", domainErr.Details["requested_status"])

	after, err := fixture.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.ServiceEndTime, after.ServiceEndTime)
	assert.Empty(t, fixture.broadcaster.topics(), "failed transition emits nothing")
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)
	fixture.broadcaster.reset()

	updated, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusWaiting)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusWaiting, updated.Status)
	assert.Empty(t, fixture.broadcaster.topics())
}

func TestUpdateStatusUnknownTicket(t *testing.T) {
	fixture := newQueueFixture(t)

	_, err := fixture.queue.UpdateStatus(context.Background(), "missing", domain.TicketStatusInProgress)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)

	_, err := fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatus("ON_HOLD"))
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestConcurrentStartServiceOnlyOneWins(t *testing.T) {
	fixture := newQueueFixture(t)
	ticket := fixture.create(t, 0)
	fixture.advance(5 * time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = fixture.queue.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress)
		}(i)
	}
	wg.Wait()

	// losers either observe the no-op (same resulting state) or an invalid
	// transition; nobody restarts the service window
	for _, err := range errs {
		if err == nil {
			continue
		}
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	}

	final, err := fixture.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, final.Status)
	require.NotNil(t, final.ServiceStartTime)
	assert.Equal(t, fixture.clock, *final.ServiceStartTime)
	require.NotNil(t, final.ActualWaitMinutes)
	assert.Equal(t, 5, *final.ActualWaitMinutes)
}

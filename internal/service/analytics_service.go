package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
)

// AnalyticsService maintains rolling per-department, per-hour averages of
// wait and service time. It owns the bucket arithmetic only; buckets are
// created lazily on first completion and never deleted.
type AnalyticsService struct {
	buckets repository.AnalyticsRepository
}

// NewAnalyticsService constructs the aggregator.
func NewAnalyticsService(buckets repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{buckets: buckets}
}

// RecordCompletion folds one completed ticket into the bucket keyed by the
// department and the calendar date/hour of the booking time. The update runs
// under the repository's per-bucket lock, so concurrent completions in the
// same hour serialize instead of losing counts.
func (s *AnalyticsService) RecordCompletion(ctx context.Context, departmentID string, bookingTime time.Time, actualWaitMinutes *int, serviceMinutes int) error {
	key := domain.BucketKey{
		DepartmentID: departmentID,
		Date:         calendarDate(bookingTime),
		Hour:         bookingTime.Hour(),
	}
	return s.buckets.Mutate(ctx, key, func(bucket *domain.QueueAnalytics) error {
		count := bucket.TicketsCount

		if actualWaitMinutes != nil {
			bucket.AverageWaitMinutes = incrementalMean(
				bucket.AverageWaitMinutes, count, decimal.NewFromInt(int64(*actualWaitMinutes)))
		}
		bucket.AverageServiceMinutes = incrementalMean(
			bucket.AverageServiceMinutes, count, decimal.NewFromInt(int64(serviceMinutes)))

		bucket.TicketsCount = count + 1
		bucket.DayOfWeek = isoDayOfWeek(bookingTime)
		return nil
	})
}

// DepartmentBuckets returns the accumulated buckets for a department, newest
// first.
func (s *AnalyticsService) DepartmentBuckets(ctx context.Context, departmentID string) ([]domain.QueueAnalytics, error) {
	return s.buckets.ListByDepartment(ctx, departmentID)
}

// incrementalMean computes (avg*n + value) / (n+1) at two decimal places.
// DivRound rounds half away from zero, which is half-up for the non-negative
// minutes handled here.
func incrementalMean(avg decimal.Decimal, count int, value decimal.Decimal) decimal.Decimal {
	total := avg.Mul(decimal.NewFromInt(int64(count))).Add(value)
	return total.DivRound(decimal.NewFromInt(int64(count+1)), 2)
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isoDayOfWeek maps to 1=Monday..7=Sunday. Stored on the bucket as a derived
// field; the key is (department, date, hour).
func isoDayOfWeek(t time.Time) int {
	weekday := int(t.Weekday())
	if weekday == 0 {
		return 7
	}
	return weekday
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestRecordCompletionAveragesMatchMean(t *testing.T) {
	repo := newMemAnalyticsRepo()
	analytics := NewAnalyticsService(repo)
	booking := time.Date(2026, time.March, 9, 14, 5, 0, 0, time.UTC)

	durations := []int{10, 20, 30, 7, 13}
	waits := []int{5, 15, 10, 20, 0}
	for i, duration := range durations {
		err := analytics.RecordCompletion(context.Background(), "7", booking, intPtr(waits[i]), duration)
		require.NoError(t, err)
	}

	bucket, err := repo.GetByKey(context.Background(), domain.BucketKey{
		DepartmentID: "7",
		Date:         time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		Hour:         14,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, bucket.TicketsCount)
	assert.Equal(t, 1, bucket.DayOfWeek, "2026-03-09 is a Monday")

	// mean(10,20,30,7,13) = 16, mean(5,15,10,20,0) = 10
	assert.True(t, bucket.AverageServiceMinutes.Equal(decimal.RequireFromString("16")),
		"got %s", bucket.AverageServiceMinutes)
	assert.True(t, bucket.AverageWaitMinutes.Equal(decimal.RequireFromString("10")),
		"got %s", bucket.AverageWaitMinutes)
}

func TestRecordCompletionRoundsHalfUp(t *testing.T) {
	repo := newMemAnalyticsRepo()
	analytics := NewAnalyticsService(repo)
	booking := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	for _, duration := range []int{1, 2, 2} {
		require.NoError(t, analytics.RecordCompletion(context.Background(), "3", booking, nil, duration))
	}

	bucket, err := repo.GetByKey(context.Background(), domain.BucketKey{
		DepartmentID: "3",
		Date:         time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		Hour:         9,
	})
	require.NoError(t, err)
	// (1.5*2 + 2) / 3 = 1.666... -> 1.67
	assert.True(t, bucket.AverageServiceMinutes.Equal(decimal.RequireFromString("1.67")),
		"got %s", bucket.AverageServiceMinutes)
	// no wait samples recorded
	assert.True(t, bucket.AverageWaitMinutes.IsZero())
}

func TestRecordCompletionMissingWaitLeavesWaitAverage(t *testing.T) {
	repo := newMemAnalyticsRepo()
	analytics := NewAnalyticsService(repo)
	booking := time.Date(2026, time.March, 10, 11, 30, 0, 0, time.UTC)

	require.NoError(t, analytics.RecordCompletion(context.Background(), "3", booking, intPtr(8), 10))
	require.NoError(t, analytics.RecordCompletion(context.Background(), "3", booking, nil, 20))

	bucket, err := repo.GetByKey(context.Background(), domain.BucketKey{
		DepartmentID: "3",
		Date:         time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		Hour:         11,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, bucket.TicketsCount)
	// missing wait sample leaves the wait average untouched
	assert.True(t, bucket.AverageWaitMinutes.Equal(decimal.RequireFromString("8")),
		"got %s", bucket.AverageWaitMinutes)
	assert.True(t, bucket.AverageServiceMinutes.Equal(decimal.RequireFromString("15")),
		"got %s", bucket.AverageServiceMinutes)
}

func TestRecordCompletionSeparateBucketsPerHour(t *testing.T) {
	repo := newMemAnalyticsRepo()
	analytics := NewAnalyticsService(repo)

	morning := time.Date(2026, time.March, 11, 9, 15, 0, 0, time.UTC)
	evening := time.Date(2026, time.March, 11, 18, 45, 0, 0, time.UTC)
	require.NoError(t, analytics.RecordCompletion(context.Background(), "5", morning, nil, 10))
	require.NoError(t, analytics.RecordCompletion(context.Background(), "5", evening, nil, 40))

	buckets, err := analytics.DepartmentBuckets(context.Background(), "5")
	require.NoError(t, err)
	assert.Len(t, buckets, 2)
}

func TestRecordCompletionConcurrentSameBucket(t *testing.T) {
	repo := newMemAnalyticsRepo()
	analytics := NewAnalyticsService(repo)
	booking := time.Date(2026, time.March, 12, 16, 0, 0, 0, time.UTC)

	const completions = 32
	var wg sync.WaitGroup
	for i := 0; i < completions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, analytics.RecordCompletion(context.Background(), "7", booking, intPtr(6), 12))
		}()
	}
	wg.Wait()

	bucket, err := repo.GetByKey(context.Background(), domain.BucketKey{
		DepartmentID: "7",
		Date:         time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC),
		Hour:         16,
	})
	require.NoError(t, err)
	assert.Equal(t, completions, bucket.TicketsCount, "no lost updates")
	assert.True(t, bucket.AverageWaitMinutes.Equal(decimal.RequireFromString("6")))
	assert.True(t, bucket.AverageServiceMinutes.Equal(decimal.RequireFromString("12")))
}

func TestIncrementalMeanHalfUp(t *testing.T) {
	// (0.02*1 + 0.01) / 2 = 0.015 -> 0.02 at two decimals, half-up
	got := incrementalMean(decimal.RequireFromString("0.02"), 1, decimal.RequireFromString("0.01"))
	assert.True(t, got.Equal(decimal.RequireFromString("0.02")), "got %s", got)

	// (0*0 + 5) / 1 = 5
	got = incrementalMean(decimal.Zero, 0, decimal.NewFromInt(5))
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestIsoDayOfWeek(t *testing.T) {
	monday := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, isoDayOfWeek(monday))
	assert.Equal(t, 7, isoDayOfWeek(sunday))
}

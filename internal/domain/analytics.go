package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BucketKey identifies one analytics bucket: a department's calendar hour.
// Date is the UTC calendar date at midnight.
type BucketKey struct {
	DepartmentID string
	Date         time.Time
	Hour         int
}

// QueueAnalytics is a rolling per-hour aggregate of completed tickets.
// Averages are kept at two decimal places. DayOfWeek is ISO (1=Monday,
// 7=Sunday) and is derived from Date, never part of the key.
type QueueAnalytics struct {
	ID                    string
	DepartmentID          string
	Date                  time.Time
	Hour                  int
	DayOfWeek             int
	TicketsCount          int
	AverageWaitMinutes    decimal.Decimal
	AverageServiceMinutes decimal.Decimal
}

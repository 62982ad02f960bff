package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when a record with the same id is already stored.
var ErrDuplicateID = errors.New("duplicate id")

// ListQuery selects a page of records by capture time, newest first.
// A zero Since or Until leaves that side of the range open; Limit <= 0 means
// no limit.
type ListQuery struct {
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Goal keys in the goals table.
const (
	goalKeyDaily    = "food.daily"
	goalKeyLearning = "homework.learning"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction so stored values
// sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

package testutil

import (
	"time"

	"github.com/google/uuid"
)

// MakeID generates a unique ID for test records.
func MakeID() string {
	return uuid.New().String()
}

// Date builds a UTC midnight timestamp, the normal form for entry and
// dividend dates throughout the dashboard.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysAgo returns a UTC midnight timestamp n days before now.
func DaysAgo(n int) time.Time {
	t := time.Now().UTC().AddDate(0, 0, -n)
	return Date(t.Year(), t.Month(), t.Day())
}

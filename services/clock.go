package services

import (
	"time"
)

// Clock returns the current time. Services default to UTC wall clock.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// DayKey is the DailyStat bucket for t: its UTC calendar date.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

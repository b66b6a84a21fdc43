package clock

import (
	"fmt"
	"time"
)

// Clock provides time information for daily-state decisions.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock provides fixed time for testing.
type TestClock struct {
	CurrentTime time.Time
}

// Now returns the test time.
func (t *TestClock) Now() time.Time {
	return t.CurrentTime
}

// Advance moves the test time forward.
func (t *TestClock) Advance(d time.Duration) {
	t.CurrentTime = t.CurrentTime.Add(d)
}

// A DayKey identifies one calendar day ("2006-01-02") in the keeper's
// local time. It is the expiry unit for all daily state.
type DayKey string

const dayKeyLayout = "2006-01-02"

// String returns the key as a plain string.
func (k DayKey) String() string { return string(k) }

// DayKeeper derives the canonical current-day key relative to a
// configurable daily reset time.
type DayKeeper struct {
	clock       Clock
	resetHour   int
	resetMinute int
}

// NewDayKeeper creates a DayKeeper with the given reset time in HH:MM
// format. An empty reset time means midnight.
func NewDayKeeper(c Clock, resetTime string) (*DayKeeper, error) {
	if resetTime == "" {
		resetTime = "00:00"
	}
	parsed, err := time.Parse("15:04", resetTime)
	if err != nil {
		return nil, fmt.Errorf("parse reset time %q: %w", resetTime, err)
	}
	return &DayKeeper{
		clock:       c,
		resetHour:   parsed.Hour(),
		resetMinute: parsed.Minute(),
	}, nil
}

// TodayKey returns the key of the current logical day. Before the reset
// time the previous calendar day is still the current day.
func (d *DayKeeper) TodayKey() DayKey {
	return DayKey(d.currentBoundary(d.clock.Now()).Format(dayKeyLayout))
}

// SecondsUntilRollover returns the number of seconds until the next
// daily reset. Exactly at the boundary it returns the full day length,
// never zero or a negative value.
func (d *DayKeeper) SecondsUntilRollover() int {
	now := d.clock.Now()
	next := d.currentBoundary(now).AddDate(0, 0, 1)
	return int(next.Sub(now) / time.Second)
}

// NextRollover returns the instant of the next daily reset.
func (d *DayKeeper) NextRollover() time.Time {
	return d.currentBoundary(d.clock.Now()).AddDate(0, 0, 1)
}

// currentBoundary returns the most recent reset boundary at or before now.
func (d *DayKeeper) currentBoundary(now time.Time) time.Time {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), d.resetHour, d.resetMinute, 0, 0, now.Location())
	if now.Before(boundary) {
		return boundary.AddDate(0, 0, -1)
	}
	return boundary
}

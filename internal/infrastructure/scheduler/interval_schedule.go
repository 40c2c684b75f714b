package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires a fixed duration after each run starts. The portal
// check uses it: runs drift with execution time instead of being pinned to
// wall-clock marks the way the daily cron schedule is.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a schedule with the given gap between runs.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the time one interval after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in the "@every 30m0s" form.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

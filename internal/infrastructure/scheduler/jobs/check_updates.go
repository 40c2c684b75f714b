// Package jobs contains the notifier's scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
)

// UpdateChecker is the application operation the periodic job drives.
type UpdateChecker interface {
	CheckForUpdates(ctx context.Context) (blocking bool, err error)
}

// CheckUpdatesJob runs the change-detection cycle on an interval. Blocking
// errors are reported through the alert channel by the monitor itself; in
// scheduler mode the process keeps running and retries on the next tick.
type CheckUpdatesJob struct {
	monitor UpdateChecker
}

// NewCheckUpdatesJob creates the periodic check job.
func NewCheckUpdatesJob(monitor UpdateChecker) *CheckUpdatesJob {
	return &CheckUpdatesJob{monitor: monitor}
}

func (j *CheckUpdatesJob) Name() string { return "check_updates" }

func (j *CheckUpdatesJob) Description() string {
	return "checks all Librus accounts for new grades, messages and announcements"
}

func (j *CheckUpdatesJob) Run(ctx context.Context) error {
	blocking, err := j.monitor.CheckForUpdates(ctx)
	if err != nil {
		return err
	}
	if blocking {
		return fmt.Errorf("check finished with blocking errors")
	}
	return nil
}

package jobs

import (
	"context"
)

// ScheduleSender is the application operation the daily job drives.
type ScheduleSender interface {
	SendTomorrowSchedule(ctx context.Context)
}

// TomorrowScheduleJob sends the next day's lesson plan and the upcoming
// quiz/test digest, typically at 16:00 Warsaw time.
type TomorrowScheduleJob struct {
	monitor ScheduleSender
}

// NewTomorrowScheduleJob creates the daily schedule job.
func NewTomorrowScheduleJob(monitor ScheduleSender) *TomorrowScheduleJob {
	return &TomorrowScheduleJob{monitor: monitor}
}

func (j *TomorrowScheduleJob) Name() string { return "tomorrow_schedule" }

func (j *TomorrowScheduleJob) Description() string {
	return "sends tomorrow's lesson plan with substitutions and the upcoming tests digest"
}

func (j *TomorrowScheduleJob) Run(ctx context.Context) error {
	j.monitor.SendTomorrowSchedule(ctx)
	return nil
}

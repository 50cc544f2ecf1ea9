package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
)

// AttendanceJobs bundles the background jobs the attendance engine runs.
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	sweepInterval     time.Duration
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, sweepInterval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		sweepInterval:     sweepInterval,
	}
}

// RegisterJobs adds the auto-checkout sweep to the scheduler. The sweep closes
// sessions left open past each company's cutoff time.
func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_checkout_sweep", j.sweepInterval, j.sweepOpenSessions)
}

func (j *AttendanceJobs) sweepOpenSessions(ctx context.Context) error {
	closed, err := j.attendanceService.SweepOpenSessions(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if closed > 0 {
		slog.Info("Auto-checkout sweep closed sessions", "count", closed)
	}
	return nil
}

package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// SubmitCheckIn verifies the evidence and opens the day's session.
	SubmitCheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// SubmitCheckOut verifies the evidence, closes the open session and
	// finalizes status, work hours, breaks and overtime.
	SubmitCheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// RecordBreak counts one break taken on the open session.
	RecordBreak(ctx context.Context, req BreakRequest) (AttendanceResponse, error)

	// GetMyAttendance retrieves attendance records for the authenticated employee.
	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	// SweepOpenSessions force-closes sessions left open past their company's
	// auto-checkout cutoff. Returns the number of sessions closed. Individual
	// record failures are logged and skipped, never abort the sweep.
	SweepOpenSessions(ctx context.Context, now time.Time) (int, error)
}

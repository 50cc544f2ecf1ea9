package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for attendance records. All methods
// scoped to an employee include companyID to prevent cross-company access.
type AttendanceRepository interface {
	// Create inserts a new record with Version 1. Returns ErrAlreadyCheckedIn
	// when a record for the same (employee, company, work date) already
	// exists, so a concurrent first check-in resolves to a single record.
	Create(ctx context.Context, att Attendance) (Attendance, error)

	// GetByEmployeeAndDate retrieves the record for a specific employee on a
	// specific work date. Returns (nil, nil) when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*Attendance, error)

	// UpdateVersioned writes the record only when att.Version still matches
	// the stored row, then bumps the version. Returns ErrStaleRecord when
	// another writer got there first.
	UpdateVersioned(ctx context.Context, att Attendance) (Attendance, error)

	// GetMyAttendance retrieves records for one employee with paging.
	GetMyAttendance(ctx context.Context, employeeID string, filter MyAttendanceFilter, companyID string) ([]Attendance, int64, error)

	// ListOpenSessions returns every record without a check-out, across all
	// companies. Consumed by the auto-checkout sweeper.
	ListOpenSessions(ctx context.Context) ([]Attendance, error)
}

package leave

import (
	"context"
	"time"
)

// LeaveQuotaRepository defines data access for the quota ledger. The
// reserve/release operations are conditional writes: the ledger invariant is
// enforced in the same statement that mutates it, so concurrent callers can
// never push Used outside [0, Allocated].
type LeaveQuotaRepository interface {
	// GetByEmployeeYearCategory returns (nil, nil) when no entry exists yet.
	GetByEmployeeYearCategory(ctx context.Context, employeeID string, year int, category string, companyID string) (*LeaveQuota, error)

	// Create inserts a lazily-initialized ledger entry.
	Create(ctx context.Context, quota LeaveQuota) (LeaveQuota, error)

	// TryReserve adds days to Used iff Used+days <= Allocated.
	TryReserve(ctx context.Context, id string, days int) (bool, error)

	// TryRelease subtracts days from Used iff Used-days >= 0.
	TryRelease(ctx context.Context, id string, days int) (bool, error)

	ListByEmployeeYear(ctx context.Context, employeeID string, year int, companyID string) ([]LeaveQuota, error)
}

// LeaveGrantRepository stores approved leave days.
type LeaveGrantRepository interface {
	Create(ctx context.Context, grant LeaveGrant) (LeaveGrant, error)

	// HasGrantForDate reports whether the employee holds an approved leave
	// grant on the given work date.
	HasGrantForDate(ctx context.Context, employeeID string, date time.Time, companyID string) (bool, error)
}

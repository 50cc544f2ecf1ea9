package leave

import "time"

// LeaveQuota tracks allocated vs. consumed leave per category per employee per
// year. `0 <= Used <= Allocated` holds at all times: writes that would break
// it are rejected, never clamped.
type LeaveQuota struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Year       int
	Category   string
	Allocated  int
	Used       int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LeaveGrant marks a single approved leave day. Grants are written by the
// external approval workflow; the classifier reads them to turn an absent day
// into leave.
type LeaveGrant struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Date       time.Time
	Category   string
	CreatedAt  time.Time
}

package leave

import "context"

// LeaveService defines business logic for the quota ledger. Reservation and
// release are the only mutations; the approval workflow itself lives outside
// this service and only its resulting grants are consumed here.
type LeaveService interface {
	// Reserve consumes days from the employee's quota, creating the ledger
	// entry lazily from the company policy on first use.
	Reserve(ctx context.Context, req ReserveLeaveRequest) (LeaveQuotaResponse, error)

	// Release returns previously reserved days (e.g. a cancelled request).
	Release(ctx context.Context, req ReleaseLeaveRequest) (LeaveQuotaResponse, error)

	// Grant records an approved leave day for an employee.
	Grant(ctx context.Context, req GrantLeaveRequest) (LeaveGrantResponse, error)

	// ListQuotas returns the calling employee's ledger entries for a year.
	ListQuotas(ctx context.Context, year int) ([]LeaveQuotaResponse, error)
}

package policy

import "context"

// PolicyRepository defines data access for per-company attendance policies.
type PolicyRepository interface {
	// GetByCompanyID retrieves the current policy snapshot for a company.
	GetByCompanyID(ctx context.Context, companyID string) (Policy, error)

	// Create inserts the first policy version for a company.
	Create(ctx context.Context, p Policy) (Policy, error)

	// UpdateVersioned replaces the policy only when p.Version still matches the
	// stored row, then bumps the version. Returns ErrPolicyConflict otherwise.
	UpdateVersioned(ctx context.Context, p Policy) (Policy, error)
}

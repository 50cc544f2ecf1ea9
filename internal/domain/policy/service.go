package policy

import "context"

// PolicyService defines business logic for attendance policy management.
type PolicyService interface {
	// GetPolicy returns the calling company's policy, creating the default
	// rule set on first access.
	GetPolicy(ctx context.Context) (PolicyResponse, error)

	// UpdatePolicy applies a validated patch and bumps the policy version.
	UpdatePolicy(ctx context.Context, req UpdatePolicyRequest) (PolicyResponse, error)

	// RotateQRSecret replaces the QR secret with a fresh high-entropy token.
	// The previous secret is invalid the moment this returns.
	RotateQRSecret(ctx context.Context) (RotateQRSecretResponse, error)
}

package policy

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/go-chi/jwtauth/v5"
)

type PolicyServiceImpl struct {
	policy.PolicyRepository
}

func NewPolicyService(policyRepo policy.PolicyRepository) policy.PolicyService {
	return &PolicyServiceImpl{
		PolicyRepository: policyRepo,
	}
}

func companyFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", fmt.Errorf("company_id claim is missing or invalid")
	}

	return companyID, nil
}

// loadOrCreate returns the company's policy, seeding the default rule set on
// first access.
func (s *PolicyServiceImpl) loadOrCreate(ctx context.Context, companyID string) (policy.Policy, error) {
	pol, err := s.PolicyRepository.GetByCompanyID(ctx, companyID)
	if err == nil {
		return pol, nil
	}
	if !errors.Is(err, policy.ErrPolicyNotFound) {
		return policy.Policy{}, fmt.Errorf("failed to load policy: %w", err)
	}

	created, err := s.PolicyRepository.Create(ctx, policy.Default(companyID))
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to create default policy: %w", err)
	}
	return created, nil
}

// GetPolicy implements policy.PolicyService.
func (s *PolicyServiceImpl) GetPolicy(ctx context.Context) (policy.PolicyResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	pol, err := s.loadOrCreate(ctx, companyID)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	return policy.ToPolicyResponse(pol), nil
}

// UpdatePolicy implements policy.PolicyService.
func (s *PolicyServiceImpl) UpdatePolicy(ctx context.Context, req policy.UpdatePolicyRequest) (policy.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.PolicyResponse{}, err
	}

	companyID, err := companyFromContext(ctx)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	pol, err := s.loadOrCreate(ctx, companyID)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	req.Apply(&pol)

	// Validate the merged result so a patch can never leave an inconsistent
	// rule set behind.
	if err := pol.Validate(); err != nil {
		return policy.PolicyResponse{}, err
	}

	updated, err := s.PolicyRepository.UpdateVersioned(ctx, pol)
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	return policy.ToPolicyResponse(updated), nil
}

// RotateQRSecret implements policy.PolicyService. The previous secret is
// invalid the moment the new one is stored; in-flight scans of the old code
// are rejected, trading convenience for replay resistance.
func (s *PolicyServiceImpl) RotateQRSecret(ctx context.Context) (policy.RotateQRSecretResponse, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return policy.RotateQRSecretResponse{}, err
	}

	pol, err := s.loadOrCreate(ctx, companyID)
	if err != nil {
		return policy.RotateQRSecretResponse{}, err
	}

	secret, err := generateSecret()
	if err != nil {
		return policy.RotateQRSecretResponse{}, fmt.Errorf("failed to generate qr secret: %w", err)
	}

	rotatedAt := time.Now().UTC()
	pol.QR.CurrentSecret = secret
	pol.QR.RotatedAt = &rotatedAt

	if _, err := s.PolicyRepository.UpdateVersioned(ctx, pol); err != nil {
		return policy.RotateQRSecretResponse{}, err
	}

	return policy.RotateQRSecretResponse{
		Secret:    secret,
		RotatedAt: rotatedAt,
	}, nil
}

// generateSecret returns a 160-bit random token in unpadded base32, the usual
// shape for secrets that end up inside QR codes.
func generateSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

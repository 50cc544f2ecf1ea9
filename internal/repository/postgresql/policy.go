package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepository struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.PolicyRepository {
	return &policyRepository{db: db}
}

// GetByCompanyID implements policy.PolicyRepository.
func (r *policyRepository) GetByCompanyID(ctx context.Context, companyID string) (policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id, config, version, created_at, updated_at
		FROM attendance_policies
		WHERE company_id = $1
	`

	var pol policy.Policy
	var config []byte
	err := q.QueryRow(ctx, query, companyID).Scan(
		&pol.CompanyID, &config, &pol.Version, &pol.CreatedAt, &pol.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.Policy{}, policy.ErrPolicyNotFound
		}
		return policy.Policy{}, fmt.Errorf("failed to get policy: %w", err)
	}

	companyIDFromRow := pol.CompanyID
	version := pol.Version
	createdAt, updatedAt := pol.CreatedAt, pol.UpdatedAt
	if err := json.Unmarshal(config, &pol); err != nil {
		return policy.Policy{}, fmt.Errorf("failed to decode policy config: %w", err)
	}
	pol.CompanyID = companyIDFromRow
	pol.Version = version
	pol.CreatedAt, pol.UpdatedAt = createdAt, updatedAt

	return pol, nil
}

// Create implements policy.PolicyRepository.
func (r *policyRepository) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	config, err := json.Marshal(p)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to encode policy config: %w", err)
	}

	query := `
		INSERT INTO attendance_policies (company_id, config, version)
		VALUES ($1, $2, 0)
		RETURNING version, created_at, updated_at
	`

	err = q.QueryRow(ctx, query, p.CompanyID, config).Scan(
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to create policy: %w", err)
	}

	return p, nil
}

// UpdateVersioned implements policy.PolicyRepository. The write is
// conditional on the version the caller read, so concurrent edits and QR
// rotations can never silently overwrite each other.
func (r *policyRepository) UpdateVersioned(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	q := GetQuerier(ctx, r.db)

	config, err := json.Marshal(p)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to encode policy config: %w", err)
	}

	query := `
		UPDATE attendance_policies
		SET config = $1, version = version + 1, updated_at = NOW()
		WHERE company_id = $2 AND version = $3
		RETURNING version, updated_at
	`

	err = q.QueryRow(ctx, query, config, p.CompanyID, p.Version).Scan(
		&p.Version, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.Policy{}, policy.ErrPolicyConflict
		}
		return policy.Policy{}, fmt.Errorf("failed to update policy: %w", err)
	}

	return p, nil
}

package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveQuotaRepository struct {
	db *database.DB
}

func NewLeaveQuotaRepository(db *database.DB) leave.LeaveQuotaRepository {
	return &leaveQuotaRepository{db: db}
}

// GetByEmployeeYearCategory implements leave.LeaveQuotaRepository.
func (r *leaveQuotaRepository) GetByEmployeeYearCategory(ctx context.Context, employeeID string, year int, category string, companyID string) (*leave.LeaveQuota, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, company_id, year, category, allocated, used, created_at, updated_at
		FROM leave_quotas
		WHERE employee_id = $1 AND year = $2 AND category = $3 AND company_id = $4
	`

	var quota leave.LeaveQuota
	err := q.QueryRow(ctx, query, employeeID, year, category, companyID).Scan(
		&quota.ID, &quota.EmployeeID, &quota.CompanyID, &quota.Year, &quota.Category,
		&quota.Allocated, &quota.Used, &quota.CreatedAt, &quota.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // created lazily on first reservation
		}
		return nil, fmt.Errorf("failed to get leave quota: %w", err)
	}

	return &quota, nil
}

// Create implements leave.LeaveQuotaRepository. A unique index on
// (employee_id, year, category) backs the conflict target; DO NOTHING lets a
// concurrent lazy creation lose without aborting the surrounding transaction,
// so the caller can re-read the winning row in the same transaction.
func (r *leaveQuotaRepository) Create(ctx context.Context, quota leave.LeaveQuota) (leave.LeaveQuota, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_quotas (id, employee_id, company_id, year, category, allocated, used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, year, category) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		quota.ID, quota.EmployeeID, quota.CompanyID, quota.Year, quota.Category,
		quota.Allocated, quota.Used,
	).Scan(&quota.CreatedAt, &quota.UpdatedAt)
	if err != nil {
		return leave.LeaveQuota{}, fmt.Errorf("failed to create leave quota: %w", err)
	}

	return quota, nil
}

// TryReserve implements leave.LeaveQuotaRepository. The ledger invariant
// used <= allocated is enforced by the WHERE clause of the same statement
// that mutates the row, so an overdraw is impossible under any interleaving.
func (r *leaveQuotaRepository) TryReserve(ctx context.Context, id string, days int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_quotas
		SET used = used + $1, updated_at = NOW()
		WHERE id = $2 AND used + $1 <= allocated
	`

	tag, err := q.Exec(ctx, query, days, id)
	if err != nil {
		return false, fmt.Errorf("failed to reserve leave quota: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// TryRelease implements leave.LeaveQuotaRepository. Symmetric guard: used
// never drops below zero.
func (r *leaveQuotaRepository) TryRelease(ctx context.Context, id string, days int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_quotas
		SET used = used - $1, updated_at = NOW()
		WHERE id = $2 AND used - $1 >= 0
	`

	tag, err := q.Exec(ctx, query, days, id)
	if err != nil {
		return false, fmt.Errorf("failed to release leave quota: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListByEmployeeYear implements leave.LeaveQuotaRepository.
func (r *leaveQuotaRepository) ListByEmployeeYear(ctx context.Context, employeeID string, year int, companyID string) ([]leave.LeaveQuota, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, company_id, year, category, allocated, used, created_at, updated_at
		FROM leave_quotas
		WHERE employee_id = $1 AND year = $2 AND company_id = $3
		ORDER BY category
	`

	rows, err := q.Query(ctx, query, employeeID, year, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave quotas: %w", err)
	}
	defer rows.Close()

	var quotas []leave.LeaveQuota
	for rows.Next() {
		var quota leave.LeaveQuota
		if err := rows.Scan(
			&quota.ID, &quota.EmployeeID, &quota.CompanyID, &quota.Year, &quota.Category,
			&quota.Allocated, &quota.Used, &quota.CreatedAt, &quota.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave quota: %w", err)
		}
		quotas = append(quotas, quota)
	}

	return quotas, rows.Err()
}

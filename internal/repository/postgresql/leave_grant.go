package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
)

type leaveGrantRepository struct {
	db *database.DB
}

func NewLeaveGrantRepository(db *database.DB) leave.LeaveGrantRepository {
	return &leaveGrantRepository{db: db}
}

// Create implements leave.LeaveGrantRepository.
func (r *leaveGrantRepository) Create(ctx context.Context, grant leave.LeaveGrant) (leave.LeaveGrant, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_grants (id, employee_id, company_id, date, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, company_id, date) DO UPDATE SET category = EXCLUDED.category
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		grant.ID, grant.EmployeeID, grant.CompanyID, grant.Date, grant.Category,
	).Scan(&grant.ID, &grant.CreatedAt)
	if err != nil {
		return leave.LeaveGrant{}, fmt.Errorf("failed to create leave grant: %w", err)
	}

	return grant, nil
}

// HasGrantForDate implements leave.LeaveGrantRepository.
func (r *leaveGrantRepository) HasGrantForDate(ctx context.Context, employeeID string, date time.Time, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_grants
			WHERE employee_id = $1 AND date = $2 AND company_id = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, date, companyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave grant: %w", err)
	}

	return exists, nil
}

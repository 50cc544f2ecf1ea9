package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuota(employeeID, companyID string, allocated int) leave.LeaveQuota {
	return leave.LeaveQuota{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Year:       2025,
		Category:   "annual",
		Allocated:  allocated,
	}
}

func TestLeaveQuotaTryReserve_GuardsAllocation(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewLeaveQuotaRepository(db)
	ctx := context.Background()

	employeeID := uuid.NewString()
	companyID := uuid.NewString()
	quota, err := repo.Create(ctx, newQuota(employeeID, companyID, 12))
	require.NoError(t, err)

	// Reserving exactly the allocation succeeds; one more day does not.
	ok, err := repo.TryReserve(ctx, quota.ID, 12)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TryReserve(ctx, quota.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByEmployeeYearCategory(ctx, employeeID, 2025, "annual", companyID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 12, stored.Used)
}

func TestLeaveQuotaTryRelease_GuardsZeroFloor(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewLeaveQuotaRepository(db)
	ctx := context.Background()

	employeeID := uuid.NewString()
	companyID := uuid.NewString()
	quota, err := repo.Create(ctx, newQuota(employeeID, companyID, 12))
	require.NoError(t, err)

	ok, err := repo.TryReserve(ctx, quota.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing more than was used must leave the row untouched.
	ok, err = repo.TryRelease(ctx, quota.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.TryRelease(ctx, quota.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByEmployeeYearCategory(ctx, employeeID, 2025, "annual", companyID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.Used)
}

func TestLeaveQuotaCreate_ConflictKeepsWinningRow(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewLeaveQuotaRepository(db)
	ctx := context.Background()

	employeeID := uuid.NewString()
	companyID := uuid.NewString()
	first, err := repo.Create(ctx, newQuota(employeeID, companyID, 12))
	require.NoError(t, err)

	// A second lazy create for the same (employee, year, category) loses:
	// DO NOTHING returns no row, and the original row stays authoritative.
	_, err = repo.Create(ctx, newQuota(employeeID, companyID, 99))
	assert.Error(t, err)

	stored, err := repo.GetByEmployeeYearCategory(ctx, employeeID, 2025, "annual", companyID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, 12, stored.Allocated)
}

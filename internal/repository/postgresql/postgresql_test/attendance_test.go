package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAttendance(employeeID, companyID string, date time.Time) attendance.Attendance {
	checkIn := date.Add(9 * time.Hour)
	method := attendance.MethodManual
	return attendance.Attendance{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		CompanyID:     companyID,
		Date:          date,
		CheckIn:       &checkIn,
		CheckInMethod: &method,
		Status:        attendance.StatusPending,
		Version:       1,
	}
}

func TestAttendanceCreate_DuplicateWorkDateRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	employeeID := uuid.NewString()
	companyID := uuid.NewString()
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, newOpenAttendance(employeeID, companyID, date))
	require.NoError(t, err)

	// Same employee, same work date, fresh ID: the unique index must reject
	// the second insert with the domain sentinel.
	_, err = repo.Create(ctx, newOpenAttendance(employeeID, companyID, date))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestAttendanceUpdateVersioned_BumpsVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	rec := newOpenAttendance(uuid.NewString(), uuid.NewString(), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	checkOut := created.CheckIn.Add(9 * time.Hour)
	method := attendance.MethodManual
	created.CheckOut = &checkOut
	created.CheckOutMethod = &method
	created.Status = attendance.StatusPresent

	updated, err := repo.UpdateVersioned(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	stored, err := repo.GetByEmployeeAndDate(ctx, rec.EmployeeID, rec.Date, rec.CompanyID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, attendance.StatusPresent, stored.Status)
	require.NotNil(t, stored.CheckOut)
}

func TestAttendanceUpdateVersioned_StaleVersionRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	rec := newOpenAttendance(uuid.NewString(), uuid.NewString(), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	first, err := repo.UpdateVersioned(ctx, created)
	require.NoError(t, err)
	require.Equal(t, 2, first.Version)

	// A second writer still holding version 1 must lose.
	created.Version = 1
	_, err = repo.UpdateVersioned(ctx, created)
	assert.ErrorIs(t, err, attendance.ErrStaleRecord)
}

func TestAttendanceGetByEmployeeAndDate_NoRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)

	stored, err := repo.GetByEmployeeAndDate(context.Background(), uuid.NewString(), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestAttendanceListOpenSessions(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	open, err := repo.Create(ctx, newOpenAttendance(uuid.NewString(), uuid.NewString(), date))
	require.NoError(t, err)

	closedRec := newOpenAttendance(uuid.NewString(), uuid.NewString(), date)
	checkOut := date.Add(18 * time.Hour)
	method := attendance.MethodManual
	closedRec.CheckOut = &checkOut
	closedRec.CheckOutMethod = &method
	_, err = repo.Create(ctx, closedRec)
	require.NoError(t, err)

	sessions, err := repo.ListOpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, open.ID, sessions[0].ID)
}

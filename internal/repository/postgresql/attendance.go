package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	id, employee_id, company_id, date,
	check_in, check_out, check_in_method, check_out_method,
	status, is_late, late_minutes,
	work_minutes, overtime_minutes, overtime_rate_multiplier,
	break_minutes_deducted, breaks_taken,
	policy_version, version, created_at, updated_at
`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date,
		&att.CheckIn, &att.CheckOut, &att.CheckInMethod, &att.CheckOutMethod,
		&att.Status, &att.IsLate, &att.LateMinutes,
		&att.WorkMinutes, &att.OvertimeMinutes, &att.OvertimeRateMultiplier,
		&att.BreakMinutesDeducted, &att.BreaksTaken,
		&att.PolicyVersion, &att.Version, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

// Create implements attendance.AttendanceRepository. A unique index on
// (employee_id, company_id, date) backs the one-record-per-work-date rule;
// a concurrent first check-in that loses the insert race surfaces as
// ErrAlreadyCheckedIn, same as the read-path rejection.
func (r *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendances (
			id, employee_id, company_id, date,
			check_in, check_out, check_in_method, check_out_method,
			status, is_late, late_minutes,
			work_minutes, overtime_minutes, overtime_rate_multiplier,
			break_minutes_deducted, breaks_taken,
			policy_version, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.ID, att.EmployeeID, att.CompanyID, att.Date,
		att.CheckIn, att.CheckOut, att.CheckInMethod, att.CheckOutMethod,
		att.Status, att.IsLate, att.LateMinutes,
		att.WorkMinutes, att.OvertimeMinutes, att.OvertimeRateMultiplier,
		att.BreakMinutesDeducted, att.BreaksTaken,
		att.PolicyVersion, att.Version,
	).Scan(&att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND date = $2
		  AND company_id = $3
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no record for this work date yet
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &att, nil
}

// UpdateVersioned implements attendance.AttendanceRepository. The UPDATE is
// conditional on the version the caller read; zero affected rows means
// another writer (a concurrent check-out or the sweeper) finalized the record
// first.
func (r *attendanceRepository) UpdateVersioned(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendances
		SET check_in = $1, check_out = $2, check_in_method = $3, check_out_method = $4,
			status = $5, is_late = $6, late_minutes = $7,
			work_minutes = $8, overtime_minutes = $9, overtime_rate_multiplier = $10,
			break_minutes_deducted = $11, breaks_taken = $12,
			version = version + 1, updated_at = NOW()
		WHERE id = $13 AND version = $14
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.CheckIn, att.CheckOut, att.CheckInMethod, att.CheckOutMethod,
		att.Status, att.IsLate, att.LateMinutes,
		att.WorkMinutes, att.OvertimeMinutes, att.OvertimeRateMultiplier,
		att.BreakMinutesDeducted, att.BreaksTaken,
		att.ID, att.Version,
	).Scan(&att.Version, &att.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrStaleRecord
		}
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return att, nil
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	monthStart := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	countQuery := `
		SELECT COUNT(*)
		FROM attendances
		WHERE employee_id = $1
		  AND company_id = $2
		  AND date >= $3 AND date < $4
	`

	var total int64
	if err := q.QueryRow(ctx, countQuery, employeeID, companyID, monthStart, monthEnd).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND company_id = $2
		  AND date >= $3 AND date < $4
		ORDER BY date DESC
		LIMIT $5 OFFSET $6
	`

	offset := (filter.Page - 1) * filter.Limit
	rows, err := q.Query(ctx, query, employeeID, companyID, monthStart, monthEnd, filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, att)
	}

	return records, total, rows.Err()
}

// ListOpenSessions implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListOpenSessions(ctx context.Context) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE check_out IS NULL
		ORDER BY company_id, date
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan open session: %w", err)
		}
		records = append(records, att)
	}

	return records, rows.Err()
}

package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	policy.PolicyRepository
	leave.LeaveGrantRepository
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	policyRepo policy.PolicyRepository,
	grantRepo leave.LeaveGrantRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		PolicyRepository:     policyRepo,
		LeaveGrantRepository: grantRepo,
	}
}

func identityFromContext(ctx context.Context) (companyID string, employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	employeeID, ok = claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	return companyID, employeeID, nil
}

// workDate resolves the work date for a submission: the explicit request date
// when given, otherwise today in the policy timezone.
func workDate(dateStr string, now time.Time, loc *time.Location) time.Time {
	if dateStr != "" {
		if d, err := time.ParseInLocation("2006-01-02", dateStr, loc); err == nil {
			return d
		}
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SubmitCheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SubmitCheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	pol, err := a.PolicyRepository.GetByCompanyID(ctx, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowUTC := time.Now().UTC()
	date := workDate(req.Date, nowUTC, pol.Location())
	method := attendance.Method(req.Method)

	event := attendance.AttendanceEvent{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Type:       attendance.EventCheckIn,
		Timestamp:  nowUTC,
		Method:     method,
		Evidence:   req.Evidence.ToEvidence(),
	}

	// A verification rejection returns before any storage write.
	if err := VerifyEvidence(event, pol); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to look up attendance record: %w", err)
	}
	if existing.State() != attendance.StateNoSession {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
	}

	isLate, lateMinutes := Lateness(nowUTC, pol)

	record := attendance.Attendance{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		CompanyID:     companyID,
		Date:          date,
		CheckIn:       &nowUTC,
		CheckInMethod: &method,
		Status:        attendance.StatusPending,
		IsLate:        isLate,
		LateMinutes:   lateMinutes,
		PolicyVersion: pol.Version,
		Version:       1,
	}

	created, err := a.AttendanceRepository.Create(ctx, record)
	if err != nil {
		// Two first check-ins racing past the read above resolve at the
		// insert: the loser gets the same rejection as a repeat check-in.
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return attendance.ToAttendanceResponse(created), nil
}

// SubmitCheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SubmitCheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	pol, err := a.PolicyRepository.GetByCompanyID(ctx, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowUTC := time.Now().UTC()
	date := workDate(req.Date, nowUTC, pol.Location())
	method := attendance.Method(req.Method)

	event := attendance.AttendanceEvent{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Type:       attendance.EventCheckOut,
		Timestamp:  nowUTC,
		Method:     method,
		Evidence:   req.Evidence.ToEvidence(),
	}

	if err := VerifyEvidence(event, pol); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to look up attendance record: %w", err)
	}
	if record.State() != attendance.StateOpen {
		return attendance.AttendanceResponse{}, attendance.ErrNoOpenSession
	}

	closed, err := a.closeRecord(ctx, *record, nowUTC, method, pol)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToAttendanceResponse(closed), nil
}

// closeRecord finalizes an open session at the given check-out time. Both the
// employee check-out path and the sweeper go through here, so classification
// and the optimistic-version guard are shared.
func (a *AttendanceServiceImpl) closeRecord(ctx context.Context, record attendance.Attendance, checkOut time.Time, method attendance.Method, pol policy.Policy) (attendance.Attendance, error) {
	hasGrant, err := a.LeaveGrantRepository.HasGrantForDate(ctx, record.EmployeeID, record.Date, record.CompanyID)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to look up leave grant: %w", err)
	}

	cls := Classify(*record.CheckIn, checkOut, pol, record.BreaksTaken, hasGrant)

	record.CheckOut = &checkOut
	record.CheckOutMethod = &method
	record.Status = cls.Status
	record.IsLate = cls.IsLate
	record.LateMinutes = cls.LateMinutes
	record.WorkMinutes = cls.WorkMinutes
	record.OvertimeMinutes = cls.OvertimeMinutes
	record.BreakMinutesDeducted = cls.BreakMinutesDeducted
	if cls.OvertimeMinutes > 0 {
		record.OvertimeRateMultiplier = pol.Overtime.RateMultiplier
	}

	return a.AttendanceRepository.UpdateVersioned(ctx, record)
}

// RecordBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordBreak(ctx context.Context, req attendance.BreakRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	pol, err := a.PolicyRepository.GetByCompanyID(ctx, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if !pol.Break.Enabled {
		return attendance.AttendanceResponse{}, attendance.ErrBreaksDisabled
	}

	nowUTC := time.Now().UTC()
	date := workDate(req.Date, nowUTC, pol.Location())

	record, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date, companyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to look up attendance record: %w", err)
	}
	if record.State() != attendance.StateOpen {
		return attendance.AttendanceResponse{}, attendance.ErrNoOpenSession
	}

	if record.BreaksTaken >= pol.Break.MaxBreaksPerDay {
		return attendance.AttendanceResponse{}, attendance.ErrBreakLimitReached
	}

	record.BreaksTaken++

	updated, err := a.AttendanceRepository.UpdateVersioned(ctx, *record)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.ToAttendanceResponse(updated), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	companyID, employeeID, err := identityFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	filter.Normalize(time.Now())

	records, total, err := a.AttendanceRepository.GetMyAttendance(ctx, employeeID, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	items := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		items = append(items, attendance.ToAttendanceResponse(record))
	}

	return attendance.ListAttendanceResponse{
		Items:      items,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
	}, nil
}

// SweepOpenSessions implements attendance.AttendanceService. It force-closes
// sessions left open past their company's auto-checkout cutoff, using the
// same classification and version guard as an employee check-out, so a race
// with a real check-out closes the session exactly once.
func (a *AttendanceServiceImpl) SweepOpenSessions(ctx context.Context, now time.Time) (int, error) {
	open, err := a.AttendanceRepository.ListOpenSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open sessions: %w", err)
	}

	// One policy snapshot per company for the whole sweep.
	policies := make(map[string]policy.Policy)
	closed := 0

	for _, record := range open {
		pol, ok := policies[record.CompanyID]
		if !ok {
			pol, err = a.PolicyRepository.GetByCompanyID(ctx, record.CompanyID)
			if err != nil {
				slog.Error("Sweep: failed to load company policy",
					"company_id", record.CompanyID,
					"error", err)
				continue
			}
			policies[record.CompanyID] = pol
		}

		if !pol.AutoCheckOut.Enabled {
			continue
		}

		cutoff := pol.ClockAt(record.Date, pol.AutoCheckOut.Time)
		if !now.After(cutoff) {
			continue
		}

		if _, err := a.closeRecord(ctx, record, cutoff, attendance.MethodAutoSweep, pol); err != nil {
			if errors.Is(err, attendance.ErrStaleRecord) {
				slog.Info("Sweep: session closed concurrently, skipping",
					"attendance_id", record.ID,
					"employee_id", record.EmployeeID)
			} else {
				slog.Error("Sweep: failed to auto-close session",
					"attendance_id", record.ID,
					"employee_id", record.EmployeeID,
					"error", err)
			}
			continue
		}
		closed++
	}

	return closed, nil
}

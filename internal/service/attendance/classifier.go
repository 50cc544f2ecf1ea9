package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
)

// Classification is the outcome of closing a session against a policy
// snapshot. Status and IsLate are independent: lateness is a flag overlaid on
// the hour-based day type so neither signal is lost.
type Classification struct {
	Status               attendance.Status
	IsLate               bool
	LateMinutes          int
	WorkMinutes          int
	OvertimeMinutes      int
	BreakMinutesDeducted int
}

// Lateness reports whether a check-in timestamp is past the late mark
// (scheduled start + late_mark_after_minutes) and, if so, how many minutes
// after the scheduled start it happened. Weekend dates are never late.
func Lateness(checkIn time.Time, pol policy.Policy) (bool, int) {
	if pol.IsWeekend(checkIn) {
		return false, 0
	}

	start := pol.ClockAt(checkIn, pol.AttendanceStartTime)
	lateMark := start.Add(time.Duration(pol.LateMarkAfterMinutes) * time.Minute)

	if !checkIn.After(lateMark) {
		return false, 0
	}
	return true, int(checkIn.Sub(start).Minutes())
}

// BreakDeduction returns the minutes to subtract from gross worked time.
// Breaks beyond max_breaks_per_day do not deduct further.
func BreakDeduction(pol policy.BreakPolicy, breaksTaken int) int {
	if !pol.Enabled || !pol.DeductFromWorkHours || breaksTaken <= 0 {
		return 0
	}

	capped := breaksTaken
	if capped > pol.MaxBreaksPerDay {
		capped = pol.MaxBreaksPerDay
	}
	return capped * pol.DurationMinutes
}

// OvertimeMinutes returns pay-eligible overtime for a check-out, clamped to
// [0, max_hours_per_day]. The rate multiplier is carried on the record as
// metadata; no currency is computed here.
func OvertimeMinutes(checkOut time.Time, pol policy.Policy) int {
	ot := pol.Overtime
	if !ot.Enabled {
		return 0
	}

	startAfter := pol.ClockAt(checkOut, ot.StartAfter)
	minutes := int(checkOut.Sub(startAfter).Minutes())
	if minutes <= 0 {
		return 0
	}

	maxMinutes := int(ot.MaxHoursPerDay * 60)
	if minutes > maxMinutes {
		minutes = maxMinutes
	}
	return minutes
}

// Classify derives the day type and work accounting for a closed session.
// Invoked whenever a session closes, whether by an employee check-out or by
// the auto-checkout sweeper; both paths produce identical results for the
// same close timestamp.
func Classify(checkIn, checkOut time.Time, pol policy.Policy, breaksTaken int, hasLeaveGrant bool) Classification {
	var cls Classification

	gross := int(checkOut.Sub(checkIn).Minutes())
	if gross < 0 {
		gross = 0
	}

	cls.BreakMinutesDeducted = BreakDeduction(pol.Break, breaksTaken)
	cls.WorkMinutes = gross - cls.BreakMinutesDeducted
	if cls.WorkMinutes < 0 {
		cls.WorkMinutes = 0
	}
	cls.OvertimeMinutes = OvertimeMinutes(checkOut, pol)

	// Weekend sessions are informational only: hours are recorded but the day
	// is never marked late, half-day or absent.
	if pol.IsWeekend(checkIn) {
		cls.Status = attendance.StatusPresent
		return cls
	}

	cls.IsLate, cls.LateMinutes = Lateness(checkIn, pol)

	fullDayMinutes := int(pol.FullDayMinHours * 60)
	halfDayMinutes := int(pol.HalfDayMinHours * 60)

	switch {
	case cls.WorkMinutes >= fullDayMinutes:
		cls.Status = attendance.StatusPresent
	case cls.WorkMinutes >= halfDayMinutes && insideHalfDayWindow(checkIn, checkOut, pol):
		cls.Status = attendance.StatusHalfDay
	default:
		if hasLeaveGrant {
			cls.Status = attendance.StatusLeave
			cls.WorkMinutes = 0
			cls.OvertimeMinutes = 0
			cls.IsLate = false
			cls.LateMinutes = 0
		} else {
			cls.Status = attendance.StatusAbsent
		}
	}

	return cls
}

func insideHalfDayWindow(checkIn, checkOut time.Time, pol policy.Policy) bool {
	windowStart := pol.ClockAt(checkIn, pol.HalfDayWindow.Start)
	windowEnd := pol.ClockAt(checkIn, pol.HalfDayWindow.End)
	return !checkIn.Before(windowStart) && !checkOut.After(windowEnd)
}

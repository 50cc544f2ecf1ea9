package policy

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// Policy is the tenant-scoped attendance rule set. A value copy is taken once
// per evaluation so a concurrent update (or QR rotation) can never change the
// rules mid-computation.
type Policy struct {
	CompanyID string `json:"-"`

	Timezone             string         `json:"timezone"`
	AttendanceStartTime  string         `json:"attendance_start_time"`
	AttendanceEndTime    string         `json:"attendance_end_time"`
	GraceMinutes         int            `json:"grace_minutes"`
	LateMarkAfterMinutes int            `json:"late_mark_after_minutes"`
	HalfDayWindow        HalfDayWindow  `json:"half_day_window"`
	FullDayMinHours      float64        `json:"full_day_min_hours"`
	HalfDayMinHours      float64        `json:"half_day_min_hours"`
	AutoCheckOut         AutoCheckOut   `json:"auto_check_out"`
	WiFi                 WiFiPolicy     `json:"wifi"`
	GPS                  GPSPolicy      `json:"gps"`
	QR                   QRPolicy       `json:"qr"`
	Break                BreakPolicy    `json:"break"`
	Overtime             OvertimePolicy `json:"overtime"`
	ManualEnabled        bool           `json:"manual_enabled"`
	WeekendDays          []time.Weekday `json:"weekend_days"`
	LeaveQuotas          map[string]int `json:"leave_quotas"`

	Version   int       `json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type HalfDayWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AutoCheckOut struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
}

type WiFiPolicy struct {
	Enabled     bool   `json:"enabled"`
	SSID        string `json:"ssid"`
	AllowedCIDR string `json:"allowed_cidr"`
}

type GPSPolicy struct {
	Enabled         bool    `json:"enabled"`
	OfficeLatitude  float64 `json:"office_latitude"`
	OfficeLongitude float64 `json:"office_longitude"`
	RadiusMeters    float64 `json:"radius_meters"`
}

type QRPolicy struct {
	Enabled       bool       `json:"enabled"`
	CurrentSecret string     `json:"current_secret"`
	RotatedAt     *time.Time `json:"rotated_at"`
}

type BreakPolicy struct {
	Enabled             bool `json:"enabled"`
	DurationMinutes     int  `json:"duration_minutes"`
	MaxBreaksPerDay     int  `json:"max_breaks_per_day"`
	DeductFromWorkHours bool `json:"deduct_from_work_hours"`
}

type OvertimePolicy struct {
	Enabled        bool    `json:"enabled"`
	StartAfter     string  `json:"start_after"`
	RateMultiplier float64 `json:"rate_multiplier"`
	MaxHoursPerDay float64 `json:"max_hours_per_day"`
}

// Default returns the rule set a company starts with before any admin edits.
func Default(companyID string) Policy {
	return Policy{
		CompanyID:            companyID,
		Timezone:             "UTC",
		AttendanceStartTime:  "09:00",
		AttendanceEndTime:    "18:00",
		GraceMinutes:         15,
		LateMarkAfterMinutes: 15,
		HalfDayWindow:        HalfDayWindow{Start: "09:00", End: "13:00"},
		FullDayMinHours:      8,
		HalfDayMinHours:      4,
		AutoCheckOut:         AutoCheckOut{Enabled: true, Time: "19:00"},
		WiFi:                 WiFiPolicy{Enabled: false},
		GPS:                  GPSPolicy{Enabled: false, RadiusMeters: 100},
		QR:                   QRPolicy{Enabled: false},
		Break:                BreakPolicy{Enabled: true, DurationMinutes: 30, MaxBreaksPerDay: 2, DeductFromWorkHours: true},
		Overtime:             OvertimePolicy{Enabled: false, StartAfter: "18:00", RateMultiplier: 1.5, MaxHoursPerDay: 3},
		ManualEnabled:        true,
		WeekendDays:          []time.Weekday{time.Saturday, time.Sunday},
		LeaveQuotas:          map[string]int{"annual": 12, "sick": 10, "unpaid": 30},
		Version:              0,
	}
}

// Validate enforces the structural invariants of a rule set.
func (p *Policy) Validate() error {
	var errs validator.ValidationErrors

	clocks := map[string]string{
		"attendance_start_time": p.AttendanceStartTime,
		"attendance_end_time":   p.AttendanceEndTime,
		"half_day_window.start": p.HalfDayWindow.Start,
		"half_day_window.end":   p.HalfDayWindow.End,
		"auto_check_out.time":   p.AutoCheckOut.Time,
		"overtime.start_after":  p.Overtime.StartAfter,
	}
	for field, value := range clocks {
		if !validator.IsValidClock(value) {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "must be a valid HH:MM time",
			})
		}
	}

	if _, err := time.LoadLocation(p.Timezone); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "timezone",
			Message: "unknown timezone",
		})
	}

	if p.GraceMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "grace_minutes",
			Message: "must not be negative",
		})
	}

	if p.LateMarkAfterMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "late_mark_after_minutes",
			Message: "must not be negative",
		})
	}

	if p.HalfDayMinHours >= p.FullDayMinHours {
		errs = append(errs, validator.ValidationError{
			Field:   "half_day_min_hours",
			Message: "must be less than full_day_min_hours",
		})
	}

	if p.WiFi.Enabled && p.WiFi.SSID == "" && p.WiFi.AllowedCIDR == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "wifi",
			Message: "ssid or allowed_cidr is required when wifi check-in is enabled",
		})
	}

	if p.WiFi.AllowedCIDR != "" && !validator.IsValidCIDR(p.WiFi.AllowedCIDR) {
		errs = append(errs, validator.ValidationError{
			Field:   "wifi.allowed_cidr",
			Message: "must be a valid CIDR block",
		})
	}

	if p.GPS.Enabled {
		if p.GPS.RadiusMeters <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "gps.radius_meters",
				Message: "must be greater than zero when gps check-in is enabled",
			})
		}
		if !validator.IsValidLatitude(p.GPS.OfficeLatitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "gps.office_latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if !validator.IsValidLongitude(p.GPS.OfficeLongitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "gps.office_longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if p.QR.Enabled && p.QR.CurrentSecret == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "qr.current_secret",
			Message: "secret is required when qr check-in is enabled",
		})
	}

	if p.Break.Enabled {
		if p.Break.DurationMinutes <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "break.duration_minutes",
				Message: "must be greater than zero when breaks are enabled",
			})
		}
		if p.Break.MaxBreaksPerDay <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "break.max_breaks_per_day",
				Message: "must be greater than zero when breaks are enabled",
			})
		}
	}

	if p.Overtime.Enabled && p.Overtime.MaxHoursPerDay <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime.max_hours_per_day",
			Message: "must be greater than zero when overtime is enabled",
		})
	}

	for category, quota := range p.LeaveQuotas {
		if quota < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "leave_quotas." + category,
				Message: "quota must not be negative",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Location resolves the policy timezone, falling back to UTC.
func (p *Policy) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ClockAt anchors an "HH:MM" rule to a concrete calendar date in the policy
// timezone.
func (p *Policy) ClockAt(date time.Time, clock string) time.Time {
	hour, minute, ok := validator.ParseClock(clock)
	if !ok {
		hour, minute = 0, 0
	}
	loc := p.Location()
	local := date.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
}

// IsWeekend reports whether the date falls on a configured weekend day.
func (p *Policy) IsWeekend(date time.Time) bool {
	weekday := date.In(p.Location()).Weekday()
	for _, d := range p.WeekendDays {
		if d == weekday {
			return true
		}
	}
	return false
}

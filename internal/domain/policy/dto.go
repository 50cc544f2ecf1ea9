package policy

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// POLICY DTOs
// ========================================

// UpdatePolicyRequest is a patch: nil fields leave the stored value untouched.
// The QR secret is deliberately not patchable; it only changes through rotation.
type UpdatePolicyRequest struct {
	Timezone             *string         `json:"timezone"`
	AttendanceStartTime  *string         `json:"attendance_start_time"`
	AttendanceEndTime    *string         `json:"attendance_end_time"`
	GraceMinutes         *int            `json:"grace_minutes"`
	LateMarkAfterMinutes *int            `json:"late_mark_after_minutes"`
	HalfDayWindow        *HalfDayWindow  `json:"half_day_window"`
	FullDayMinHours      *float64        `json:"full_day_min_hours"`
	HalfDayMinHours      *float64        `json:"half_day_min_hours"`
	AutoCheckOut         *AutoCheckOut   `json:"auto_check_out"`
	WiFi                 *WiFiPolicy     `json:"wifi"`
	GPS                  *GPSPolicy      `json:"gps"`
	QREnabled            *bool           `json:"qr_enabled"`
	Break                *BreakPolicy    `json:"break"`
	Overtime             *OvertimePolicy `json:"overtime"`
	ManualEnabled        *bool           `json:"manual_enabled"`
	WeekendDays          *[]time.Weekday `json:"weekend_days"`
	LeaveQuotas          *map[string]int `json:"leave_quotas"`
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.WeekendDays != nil {
		for _, d := range *r.WeekendDays {
			if d < time.Sunday || d > time.Saturday {
				errs = append(errs, validator.ValidationError{
					Field:   "weekend_days",
					Message: "weekday values must be between 0 (Sunday) and 6 (Saturday)",
				})
				break
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Apply copies the provided patch fields onto p. The merged result is
// validated as a whole by Policy.Validate before it is persisted.
func (r *UpdatePolicyRequest) Apply(p *Policy) {
	if r.Timezone != nil {
		p.Timezone = *r.Timezone
	}
	if r.AttendanceStartTime != nil {
		p.AttendanceStartTime = *r.AttendanceStartTime
	}
	if r.AttendanceEndTime != nil {
		p.AttendanceEndTime = *r.AttendanceEndTime
	}
	if r.GraceMinutes != nil {
		p.GraceMinutes = *r.GraceMinutes
	}
	if r.LateMarkAfterMinutes != nil {
		p.LateMarkAfterMinutes = *r.LateMarkAfterMinutes
	}
	if r.HalfDayWindow != nil {
		p.HalfDayWindow = *r.HalfDayWindow
	}
	if r.FullDayMinHours != nil {
		p.FullDayMinHours = *r.FullDayMinHours
	}
	if r.HalfDayMinHours != nil {
		p.HalfDayMinHours = *r.HalfDayMinHours
	}
	if r.AutoCheckOut != nil {
		p.AutoCheckOut = *r.AutoCheckOut
	}
	if r.WiFi != nil {
		p.WiFi = *r.WiFi
	}
	if r.GPS != nil {
		p.GPS = *r.GPS
	}
	if r.QREnabled != nil {
		p.QR.Enabled = *r.QREnabled
	}
	if r.Break != nil {
		p.Break = *r.Break
	}
	if r.Overtime != nil {
		p.Overtime = *r.Overtime
	}
	if r.ManualEnabled != nil {
		p.ManualEnabled = *r.ManualEnabled
	}
	if r.WeekendDays != nil {
		p.WeekendDays = *r.WeekendDays
	}
	if r.LeaveQuotas != nil {
		p.LeaveQuotas = *r.LeaveQuotas
	}
}

type QRPolicyResponse struct {
	Enabled   bool       `json:"enabled"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
}

// PolicyResponse never exposes the current QR secret; the secret is only
// returned once, from the rotation endpoint.
type PolicyResponse struct {
	Timezone             string           `json:"timezone"`
	AttendanceStartTime  string           `json:"attendance_start_time"`
	AttendanceEndTime    string           `json:"attendance_end_time"`
	GraceMinutes         int              `json:"grace_minutes"`
	LateMarkAfterMinutes int              `json:"late_mark_after_minutes"`
	HalfDayWindow        HalfDayWindow    `json:"half_day_window"`
	FullDayMinHours      float64          `json:"full_day_min_hours"`
	HalfDayMinHours      float64          `json:"half_day_min_hours"`
	AutoCheckOut         AutoCheckOut     `json:"auto_check_out"`
	WiFi                 WiFiPolicy       `json:"wifi"`
	GPS                  GPSPolicy        `json:"gps"`
	QR                   QRPolicyResponse `json:"qr"`
	Break                BreakPolicy      `json:"break"`
	Overtime             OvertimePolicy   `json:"overtime"`
	ManualEnabled        bool             `json:"manual_enabled"`
	WeekendDays          []time.Weekday   `json:"weekend_days"`
	LeaveQuotas          map[string]int   `json:"leave_quotas"`
	Version              int              `json:"version"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

type RotateQRSecretResponse struct {
	Secret    string    `json:"secret"`
	RotatedAt time.Time `json:"rotated_at"`
}

func ToPolicyResponse(p Policy) PolicyResponse {
	return PolicyResponse{
		Timezone:             p.Timezone,
		AttendanceStartTime:  p.AttendanceStartTime,
		AttendanceEndTime:    p.AttendanceEndTime,
		GraceMinutes:         p.GraceMinutes,
		LateMarkAfterMinutes: p.LateMarkAfterMinutes,
		HalfDayWindow:        p.HalfDayWindow,
		FullDayMinHours:      p.FullDayMinHours,
		HalfDayMinHours:      p.HalfDayMinHours,
		AutoCheckOut:         p.AutoCheckOut,
		WiFi:                 p.WiFi,
		GPS:                  p.GPS,
		QR: QRPolicyResponse{
			Enabled:   p.QR.Enabled,
			RotatedAt: p.QR.RotatedAt,
		},
		Break:         p.Break,
		Overtime:      p.Overtime,
		ManualEnabled: p.ManualEnabled,
		WeekendDays:   p.WeekendDays,
		LeaveQuotas:   p.LeaveQuotas,
		Version:       p.Version,
		UpdatedAt:     p.UpdatedAt,
	}
}

package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type EvidenceRequest struct {
	SourceIP  string   `json:"source_ip"`
	SSID      string   `json:"ssid"`
	QRToken   string   `json:"qr_token"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (e EvidenceRequest) ToEvidence() Evidence {
	return Evidence{
		SourceIP:  e.SourceIP,
		SSID:      e.SSID,
		QRToken:   e.QRToken,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
	}
}

func validateEvidence(method string, evidence EvidenceRequest, errs validator.ValidationErrors) validator.ValidationErrors {
	switch Method(method) {
	case MethodWiFi:
		if validator.IsEmpty(evidence.SSID) && validator.IsEmpty(evidence.SourceIP) {
			errs = append(errs, validator.ValidationError{
				Field:   "evidence",
				Message: "ssid or source_ip is required for wifi check-in",
			})
		}
	case MethodQR:
		if validator.IsEmpty(evidence.QRToken) {
			errs = append(errs, validator.ValidationError{
				Field:   "evidence.qr_token",
				Message: "qr_token is required for qr check-in",
			})
		}
	case MethodGPS:
		if evidence.Latitude == nil || evidence.Longitude == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "evidence",
				Message: "latitude and longitude are required for gps check-in",
			})
			break
		}
		if !validator.IsValidLatitude(*evidence.Latitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "evidence.latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if !validator.IsValidLongitude(*evidence.Longitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "evidence.longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
	case MethodManual:
		// no evidence required; auditing of who performed it is the caller's job
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "method",
			Message: "method must be one of wifi, qr, gps, manual",
		})
	}
	return errs
}

type CheckInRequest struct {
	Date     string          `json:"date"` // optional YYYY-MM-DD, defaults to today
	Method   string          `json:"method"`
	Evidence EvidenceRequest `json:"evidence"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	errs = validateEvidence(r.Method, r.Evidence, errs)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	Date     string          `json:"date"`
	Method   string          `json:"method"`
	Evidence EvidenceRequest `json:"evidence"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	errs = validateEvidence(r.Method, r.Evidence, errs)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BreakRequest struct {
	Date string `json:"date"` // optional YYYY-MM-DD, defaults to today
}

func (r *BreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MyAttendanceFilter struct {
	Year  int
	Month int
	Page  int
	Limit int
}

func (f *MyAttendanceFilter) Normalize(now time.Time) {
	if f.Year == 0 {
		f.Year = now.Year()
	}
	if f.Month < 1 || f.Month > 12 {
		f.Month = int(now.Month())
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 31
	}
}

type AttendanceResponse struct {
	ID                     string  `json:"id"`
	EmployeeID             string  `json:"employee_id"`
	Date                   string  `json:"date"`
	CheckIn                *string `json:"check_in"`
	CheckOut               *string `json:"check_out"`
	CheckInMethod          *string `json:"check_in_method"`
	CheckOutMethod         *string `json:"check_out_method"`
	Status                 string  `json:"status"`
	DisplayStatus          string  `json:"display_status"`
	IsLate                 bool    `json:"is_late"`
	LateMinutes            int     `json:"late_minutes"`
	WorkMinutes            int     `json:"work_minutes"`
	OvertimeMinutes        int     `json:"overtime_minutes"`
	OvertimeRateMultiplier float64 `json:"overtime_rate_multiplier,omitempty"`
	BreakMinutesDeducted   int     `json:"break_minutes_deducted"`
	BreaksTaken            int     `json:"breaks_taken"`
	Version                int     `json:"version"`
}

type ListAttendanceResponse struct {
	Items      []AttendanceResponse `json:"items"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalItems int64                `json:"total_items"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}

func methodPtrToString(m *Method) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

// DisplayStatus collapses the two stored signals for UI convenience: lateness
// takes precedence over a plain present day, while half-day/absent/leave keep
// their own label. Both underlying fields stay in the response.
func displayStatus(a Attendance) string {
	if a.IsLate && (a.Status == StatusPresent || a.Status == StatusPending) {
		return "late"
	}
	return string(a.Status)
}

func ToAttendanceResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:                     a.ID,
		EmployeeID:             a.EmployeeID,
		Date:                   a.Date.Format("2006-01-02"),
		CheckIn:                timePtrToString(a.CheckIn),
		CheckOut:               timePtrToString(a.CheckOut),
		CheckInMethod:          methodPtrToString(a.CheckInMethod),
		CheckOutMethod:         methodPtrToString(a.CheckOutMethod),
		Status:                 string(a.Status),
		DisplayStatus:          displayStatus(a),
		IsLate:                 a.IsLate,
		LateMinutes:            a.LateMinutes,
		WorkMinutes:            a.WorkMinutes,
		OvertimeMinutes:        a.OvertimeMinutes,
		OvertimeRateMultiplier: a.OvertimeRateMultiplier,
		BreakMinutesDeducted:   a.BreakMinutesDeducted,
		BreaksTaken:            a.BreaksTaken,
		Version:                a.Version,
	}
}

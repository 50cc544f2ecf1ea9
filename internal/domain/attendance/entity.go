package attendance

import (
	"time"
)

type Method string

const (
	MethodWiFi      Method = "wifi"
	MethodQR        Method = "qr"
	MethodGPS       Method = "gps"
	MethodManual    Method = "manual"
	MethodAutoSweep Method = "auto_sweep"
)

type EventType string

const (
	EventCheckIn  EventType = "check_in"
	EventCheckOut EventType = "check_out"
)

// Status is the hour-based day type. Lateness is a separate flag on the
// record so neither signal shadows the other.
type Status string

const (
	StatusPending Status = "pending" // session still open, not yet classified
	StatusPresent Status = "present"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
)

type SessionState string

const (
	StateNoSession SessionState = "no_session"
	StateOpen      SessionState = "open"
	StateClosed    SessionState = "closed"
)

// Evidence carries the method-specific proof attached to a check-in or
// check-out submission. Only the fields relevant to the method are set.
type Evidence struct {
	SourceIP  string
	SSID      string
	QRToken   string
	Latitude  *float64
	Longitude *float64
}

// AttendanceEvent is a raw submission. Immutable once accepted.
type AttendanceEvent struct {
	EmployeeID string
	CompanyID  string
	Date       time.Time
	Type       EventType
	Timestamp  time.Time
	Method     Method
	Evidence   Evidence
}

// Attendance is the single record per (employee, date). It is never deleted;
// every accepted mutation bumps Version, and writes are conditional on the
// version the writer last read.
type Attendance struct {
	ID                     string
	EmployeeID             string
	CompanyID              string
	Date                   time.Time
	CheckIn                *time.Time
	CheckOut               *time.Time
	CheckInMethod          *Method
	CheckOutMethod         *Method
	Status                 Status
	IsLate                 bool
	LateMinutes            int
	WorkMinutes            int
	OvertimeMinutes        int
	OvertimeRateMultiplier float64
	BreakMinutesDeducted   int
	BreaksTaken            int
	PolicyVersion          int
	Version                int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// State derives the session state from the record. A nil record means the
// employee has not checked in on that date.
func (a *Attendance) State() SessionState {
	if a == nil || a.ID == "" {
		return StateNoSession
	}
	if a.CheckOut != nil {
		return StateClosed
	}
	return StateOpen
}

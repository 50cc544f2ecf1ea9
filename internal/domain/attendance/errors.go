package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Verification rejections: the caller may resubmit with correct evidence.
	ErrWiFiDisabled    = errors.New("wifi check-in is disabled for this company")
	ErrSSIDMismatch    = errors.New("wifi network does not match the allowed SSID")
	ErrIPOutOfRange    = errors.New("source ip is outside the allowed network range")
	ErrGPSDisabled     = errors.New("gps check-in is disabled for this company")
	ErrOutsideGeofence = errors.New("you are outside the allowed radius")
	ErrQRDisabled      = errors.New("qr check-in is disabled for this company")
	ErrQRSecretExpired = errors.New("qr code is no longer valid")
	ErrManualDisabled  = errors.New("manual check-in is disabled for this company")

	// State conflicts: the caller should re-read current state and retry.
	ErrAlreadyCheckedIn   = errors.New("you have already checked in today")
	ErrNoOpenSession      = errors.New("you have no open session for this date")
	ErrStaleRecord        = errors.New("attendance record was modified concurrently")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrBreaksDisabled     = errors.New("break tracking is disabled for this company")
	ErrBreakLimitReached  = errors.New("maximum breaks for the day already taken")
)

// GeofenceError is returned for GPS rejections so the computed distance can be
// surfaced for diagnostics. errors.Is(err, ErrOutsideGeofence) matches it.
type GeofenceError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("you are outside the allowed radius (%.0fm away, %.0fm allowed)",
		e.DistanceMeters, e.RadiusMeters)
}

func (e *GeofenceError) Is(target error) bool {
	return target == ErrOutsideGeofence
}

package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Every rejection carries a
// stable machine-readable code so the UI can render a specific message.
func HandleError(w http.ResponseWriter, err error) {
	// Field-level validation errors first
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// GPS rejections surface the computed distance for diagnostics
	var geofenceErr *attendance.GeofenceError
	if errors.As(err, &geofenceErr) {
		Rejected(w, http.StatusBadRequest, "GPS_OUT_OF_FENCE", geofenceErr.Error(), map[string]string{
			"distance_meters": fmt.Sprintf("%.1f", geofenceErr.DistanceMeters),
			"radius_meters":   fmt.Sprintf("%.1f", geofenceErr.RadiusMeters),
		})
		return
	}

	switch {
	// Verification rejections: resubmit with correct evidence
	case errors.Is(err, attendance.ErrWiFiDisabled):
		Rejected(w, http.StatusBadRequest, "WIFI_DISABLED", err.Error(), nil)
	case errors.Is(err, attendance.ErrSSIDMismatch):
		Rejected(w, http.StatusBadRequest, "SSID_MISMATCH", err.Error(), nil)
	case errors.Is(err, attendance.ErrIPOutOfRange):
		Rejected(w, http.StatusBadRequest, "IP_OUT_OF_RANGE", err.Error(), nil)
	case errors.Is(err, attendance.ErrGPSDisabled):
		Rejected(w, http.StatusBadRequest, "GPS_DISABLED", err.Error(), nil)
	case errors.Is(err, attendance.ErrOutsideGeofence):
		Rejected(w, http.StatusBadRequest, "GPS_OUT_OF_FENCE", err.Error(), nil)
	case errors.Is(err, attendance.ErrQRDisabled):
		Rejected(w, http.StatusBadRequest, "QR_DISABLED", err.Error(), nil)
	case errors.Is(err, attendance.ErrQRSecretExpired):
		Rejected(w, http.StatusBadRequest, "QR_SECRET_EXPIRED", err.Error(), nil)
	case errors.Is(err, attendance.ErrManualDisabled):
		Rejected(w, http.StatusBadRequest, "MANUAL_DISABLED", err.Error(), nil)

	// State conflicts: re-read current state and retry
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Rejected(w, http.StatusConflict, "ALREADY_CHECKED_IN", err.Error(), nil)
	case errors.Is(err, attendance.ErrNoOpenSession):
		Rejected(w, http.StatusConflict, "NO_OPEN_SESSION", err.Error(), nil)
	case errors.Is(err, attendance.ErrStaleRecord):
		Rejected(w, http.StatusConflict, "STALE_RECORD", err.Error(), nil)
	case errors.Is(err, attendance.ErrBreaksDisabled):
		Rejected(w, http.StatusBadRequest, "BREAKS_DISABLED", err.Error(), nil)
	case errors.Is(err, attendance.ErrBreakLimitReached):
		Rejected(w, http.StatusConflict, "BREAK_LIMIT_REACHED", err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, err.Error())

	// Leave domain errors
	case errors.Is(err, leave.ErrInsufficientQuota):
		Rejected(w, http.StatusBadRequest, "INSUFFICIENT_QUOTA", err.Error(), nil)
	case errors.Is(err, leave.ErrReleaseExceedsUsed):
		Rejected(w, http.StatusBadRequest, "RELEASE_EXCEEDS_USED", err.Error(), nil)
	case errors.Is(err, leave.ErrUnknownLeaveCategory):
		Rejected(w, http.StatusBadRequest, "UNKNOWN_LEAVE_CATEGORY", err.Error(), nil)
	case errors.Is(err, leave.ErrQuotaNotFound):
		NotFound(w, err.Error())

	// Policy domain errors
	case errors.Is(err, policy.ErrPolicyNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, policy.ErrPolicyConflict):
		Rejected(w, http.StatusConflict, "POLICY_CONFLICT", err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}

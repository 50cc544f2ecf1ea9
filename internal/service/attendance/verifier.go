package attendance

import (
	"crypto/subtle"
	"fmt"
	"net/netip"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/utils"
)

// VerifyEvidence validates a raw check-in/check-out submission against a
// policy snapshot. Pure: no storage access and no side effects, so a
// rejection can never create or mutate an attendance record.
func VerifyEvidence(event attendance.AttendanceEvent, pol policy.Policy) error {
	switch event.Method {
	case attendance.MethodWiFi:
		return verifyWiFi(event.Evidence, pol.WiFi)
	case attendance.MethodGPS:
		return verifyGPS(event.Evidence, pol.GPS)
	case attendance.MethodQR:
		return verifyQR(event.Evidence, pol.QR)
	case attendance.MethodManual:
		if !pol.ManualEnabled {
			return attendance.ErrManualDisabled
		}
		return nil
	case attendance.MethodAutoSweep:
		// Synthesized internally by the sweeper, never carries evidence.
		return nil
	default:
		return fmt.Errorf("unsupported attendance method %q", event.Method)
	}
}

// verifyWiFi accepts when either the reported SSID matches the allowed
// network or the source IP falls inside the allowed CIDR block.
func verifyWiFi(ev attendance.Evidence, pol policy.WiFiPolicy) error {
	if !pol.Enabled {
		return attendance.ErrWiFiDisabled
	}

	if ev.SSID != "" && pol.SSID != "" && ev.SSID == pol.SSID {
		return nil
	}

	if ev.SourceIP != "" && pol.AllowedCIDR != "" {
		addr, err := netip.ParseAddr(ev.SourceIP)
		if err == nil {
			prefix, err := netip.ParsePrefix(pol.AllowedCIDR)
			if err == nil && prefix.Contains(addr) {
				return nil
			}
		}
		return attendance.ErrIPOutOfRange
	}

	return attendance.ErrSSIDMismatch
}

// verifyGPS accepts when the haversine distance to the office is within the
// geofence radius. The boundary is inclusive.
func verifyGPS(ev attendance.Evidence, pol policy.GPSPolicy) error {
	if !pol.Enabled {
		return attendance.ErrGPSDisabled
	}

	if ev.Latitude == nil || ev.Longitude == nil {
		// DTO validation rejects this earlier; guard for direct callers.
		return attendance.ErrOutsideGeofence
	}

	distance := utils.CalculateHaversineDistance(
		*ev.Latitude, *ev.Longitude,
		pol.OfficeLatitude, pol.OfficeLongitude,
	)

	if distance <= pol.RadiusMeters {
		return nil
	}

	return &attendance.GeofenceError{
		DistanceMeters: distance,
		RadiusMeters:   pol.RadiusMeters,
	}
}

// verifyQR accepts only the current secret. There is no grace window after a
// rotation: a token minted from the previous secret is rejected outright,
// which is what makes replaying an old QR code useless.
func verifyQR(ev attendance.Evidence, pol policy.QRPolicy) error {
	if !pol.Enabled {
		return attendance.ErrQRDisabled
	}

	if subtle.ConstantTimeCompare([]byte(ev.QRToken), []byte(pol.CurrentSecret)) != 1 {
		return attendance.ErrQRSecretExpired
	}

	return nil
}

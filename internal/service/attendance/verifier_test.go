package attendance

import (
	"fmt"
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wifiEvent(ssid, sourceIP string) attendance.AttendanceEvent {
	return attendance.AttendanceEvent{
		Method: attendance.MethodWiFi,
		Evidence: attendance.Evidence{
			SSID:     ssid,
			SourceIP: sourceIP,
		},
	}
}

func gpsEvent(lat, lon float64) attendance.AttendanceEvent {
	return attendance.AttendanceEvent{
		Method: attendance.MethodGPS,
		Evidence: attendance.Evidence{
			Latitude:  &lat,
			Longitude: &lon,
		},
	}
}

func qrEvent(token string) attendance.AttendanceEvent {
	return attendance.AttendanceEvent{
		Method:   attendance.MethodQR,
		Evidence: attendance.Evidence{QRToken: token},
	}
}

func TestVerifyEvidence_WiFi_DisabledRejectsEverything(t *testing.T) {
	pol := policy.Default("company-1")
	pol.WiFi = policy.WiFiPolicy{Enabled: false, SSID: "office-net"}

	err := VerifyEvidence(wifiEvent("office-net", "10.1.0.5"), pol)
	assert.ErrorIs(t, err, attendance.ErrWiFiDisabled)
}

func TestVerifyEvidence_WiFi_SSIDMatch(t *testing.T) {
	pol := policy.Default("company-1")
	pol.WiFi = policy.WiFiPolicy{Enabled: true, SSID: "office-net"}

	assert.NoError(t, VerifyEvidence(wifiEvent("office-net", ""), pol))
	assert.ErrorIs(t, VerifyEvidence(wifiEvent("guest-net", ""), pol), attendance.ErrSSIDMismatch)
}

func TestVerifyEvidence_WiFi_CIDRContainment(t *testing.T) {
	pol := policy.Default("company-1")
	pol.WiFi = policy.WiFiPolicy{Enabled: true, AllowedCIDR: "10.1.0.0/16"}

	inside := []string{"10.1.0.1", "10.1.0.254", "10.1.255.255", "10.1.128.7"}
	outside := []string{"10.2.0.1", "192.168.1.10", "172.16.0.1", "11.1.0.1"}

	for _, ip := range inside {
		t.Run(fmt.Sprintf("inside_%s", ip), func(t *testing.T) {
			assert.NoError(t, VerifyEvidence(wifiEvent("", ip), pol))
		})
	}
	for _, ip := range outside {
		t.Run(fmt.Sprintf("outside_%s", ip), func(t *testing.T) {
			assert.ErrorIs(t, VerifyEvidence(wifiEvent("", ip), pol), attendance.ErrIPOutOfRange)
		})
	}
}

func TestVerifyEvidence_WiFi_SSIDMismatchButIPInRange(t *testing.T) {
	// Either signal is enough: a wrong SSID report with an in-range IP passes.
	pol := policy.Default("company-1")
	pol.WiFi = policy.WiFiPolicy{Enabled: true, SSID: "office-net", AllowedCIDR: "10.1.0.0/16"}

	assert.NoError(t, VerifyEvidence(wifiEvent("hotspot", "10.1.3.4"), pol))
}

func TestVerifyEvidence_WiFi_MalformedIPRejected(t *testing.T) {
	pol := policy.Default("company-1")
	pol.WiFi = policy.WiFiPolicy{Enabled: true, AllowedCIDR: "10.1.0.0/16"}

	assert.ErrorIs(t, VerifyEvidence(wifiEvent("", "not-an-ip"), pol), attendance.ErrIPOutOfRange)
}

func TestVerifyEvidence_GPS_InsideAndOutside(t *testing.T) {
	pol := policy.Default("company-1")
	pol.GPS = policy.GPSPolicy{
		Enabled:         true,
		OfficeLatitude:  -6.175392,
		OfficeLongitude: 106.827153,
		RadiusMeters:    100,
	}

	// At the office itself.
	assert.NoError(t, VerifyEvidence(gpsEvent(-6.175392, 106.827153), pol))

	// ~55 m north of the office, inside the fence.
	assert.NoError(t, VerifyEvidence(gpsEvent(-6.174892, 106.827153), pol))

	// ~1100 m away, well outside.
	err := VerifyEvidence(gpsEvent(-6.165392, 106.827153), pol)
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)

	var geoErr *attendance.GeofenceError
	require.ErrorAs(t, err, &geoErr)
	assert.Greater(t, geoErr.DistanceMeters, 100.0)
	assert.Equal(t, 100.0, geoErr.RadiusMeters)
}

func TestVerifyEvidence_GPS_BoundaryIsInclusive(t *testing.T) {
	// Place the fence boundary exactly at the submitted point: ~111.2 m for
	// 0.001 degrees of latitude at the equator. A radius just under rejects,
	// at-or-over accepts.
	pol := policy.Default("company-1")
	pol.GPS = policy.GPSPolicy{Enabled: true, OfficeLatitude: 0, OfficeLongitude: 0, RadiusMeters: 111.2}

	assert.NoError(t, VerifyEvidence(gpsEvent(0.001, 0), pol))

	pol.GPS.RadiusMeters = 110
	assert.ErrorIs(t, VerifyEvidence(gpsEvent(0.001, 0), pol), attendance.ErrOutsideGeofence)
}

func TestVerifyEvidence_GPS_Disabled(t *testing.T) {
	pol := policy.Default("company-1")
	pol.GPS.Enabled = false

	assert.ErrorIs(t, VerifyEvidence(gpsEvent(0, 0), pol), attendance.ErrGPSDisabled)
}

func TestVerifyEvidence_QR_CurrentSecretAccepted(t *testing.T) {
	pol := policy.Default("company-1")
	pol.QR = policy.QRPolicy{Enabled: true, CurrentSecret: "SECRET-A"}

	assert.NoError(t, VerifyEvidence(qrEvent("SECRET-A"), pol))
}

func TestVerifyEvidence_QR_OldSecretRejectedAfterRotation(t *testing.T) {
	pol := policy.Default("company-1")
	pol.QR = policy.QRPolicy{Enabled: true, CurrentSecret: "SECRET-A"}

	require.NoError(t, VerifyEvidence(qrEvent("SECRET-A"), pol))

	// Rotation swaps the secret; the old token must fail immediately.
	pol.QR.CurrentSecret = "SECRET-B"
	assert.ErrorIs(t, VerifyEvidence(qrEvent("SECRET-A"), pol), attendance.ErrQRSecretExpired)
	assert.NoError(t, VerifyEvidence(qrEvent("SECRET-B"), pol))
}

func TestVerifyEvidence_QR_Disabled(t *testing.T) {
	pol := policy.Default("company-1")
	pol.QR = policy.QRPolicy{Enabled: false, CurrentSecret: "SECRET-A"}

	assert.ErrorIs(t, VerifyEvidence(qrEvent("SECRET-A"), pol), attendance.ErrQRDisabled)
}

func TestVerifyEvidence_Manual(t *testing.T) {
	pol := policy.Default("company-1")
	pol.ManualEnabled = true

	event := attendance.AttendanceEvent{Method: attendance.MethodManual}
	assert.NoError(t, VerifyEvidence(event, pol))

	pol.ManualEnabled = false
	assert.ErrorIs(t, VerifyEvidence(event, pol), attendance.ErrManualDisabled)
}

func TestVerifyEvidence_AutoSweepAlwaysAccepted(t *testing.T) {
	pol := policy.Default("company-1")
	pol.ManualEnabled = false
	pol.WiFi.Enabled = false
	pol.GPS.Enabled = false
	pol.QR.Enabled = false

	event := attendance.AttendanceEvent{Method: attendance.MethodAutoSweep}
	assert.NoError(t, VerifyEvidence(event, pol))
}

func TestVerifyEvidence_UnknownMethod(t *testing.T) {
	pol := policy.Default("company-1")
	event := attendance.AttendanceEvent{Method: attendance.Method("telepathy")}
	assert.Error(t, VerifyEvidence(event, pol))
}

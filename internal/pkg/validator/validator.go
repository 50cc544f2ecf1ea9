package validator

import (
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValidClock reports whether s is a time-of-day in "HH:MM" (24h) form.
func IsValidClock(s string) bool {
	return clockRegex.MatchString(s)
}

// ParseClock splits an "HH:MM" string into hour and minute components.
// Returns false when the string is not a valid clock value.
func ParseClock(s string) (hour, minute int, ok bool) {
	if !IsValidClock(s) {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(s[:2])
	minute, _ = strconv.Atoi(s[3:])
	return hour, minute, true
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// IsValidCIDR reports whether s is a parseable CIDR block like "10.0.0.0/8".
func IsValidCIDR(s string) bool {
	_, err := netip.ParsePrefix(s)
	return err == nil
}

// IsValidLatitude / IsValidLongitude bound raw coordinate input.
func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

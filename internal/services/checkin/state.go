package checkin

import (
	"strings"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

// State is the presence of a guest, derived from the access log.
type State string

const (
	StateNotPresent State = "NOT_PRESENT"
	StatePresent    State = "PRESENT"
)

// DeriveState returns the presence implied by the latest event.
// A guest with no events is not present.
func DeriveState(latest *models.AccessEvent) State {
	if latest != nil && latest.AccessType == models.AccessEntry {
		return StatePresent
	}
	return StateNotPresent
}

// Device classes stored on access events.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// NormalizeDevice accepts an explicit device class, falling back to a
// classification of the User-Agent when the class is empty or unknown.
func NormalizeDevice(explicit, userAgent string) string {
	switch d := strings.ToLower(strings.TrimSpace(explicit)); d {
	case DeviceMobile, DeviceTablet, DeviceDesktop:
		return d
	}
	return ClassifyUserAgent(userAgent)
}

// ClassifyUserAgent maps a User-Agent header onto a device class.
func ClassifyUserAgent(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case ua == "":
		return DeviceUnknown
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"),
		strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return DeviceTablet
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"):
		return DeviceMobile
	case strings.Contains(ua, "windows"), strings.Contains(ua, "macintosh"),
		strings.Contains(ua, "linux"), strings.Contains(ua, "x11"):
		return DeviceDesktop
	}
	return DeviceUnknown
}

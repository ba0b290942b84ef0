// Package device turns a User-Agent header into the short device summary
// shown next to login activity.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <os>", using the platform instead of
// the OS string for mobile devices.
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if ua.Bot() {
		return strings.TrimSpace(browser + " (bot)")
	}

	where := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		where = ua.Platform()
	}
	if where == "" {
		where = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + where)
}

// Package device turns a raw User-Agent into a short label recorded with
// each evidence submission.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns a label such as "Chrome on Windows", or
// "Unknown device" when nothing useful can be extracted.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown device"
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "Bot"
	}

	browser, _ := ua.Browser()
	osName := ua.OSInfo().Name

	switch {
	case browser != "" && osName != "":
		return browser + " on " + osName
	case browser != "":
		return browser
	case osName != "":
		return osName
	default:
		return "Unknown device"
	}
}

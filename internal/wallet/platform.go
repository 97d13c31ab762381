package wallet

import (
	"strings"

	"github.com/mssola/useragent"

	passModel "cartera/internal/pass/models"
)

// DetectPlatform maps a browser user agent to the wallet platform the
// claimer should receive. In-app browsers (Instagram, Facebook) report
// the underlying OS, which is what matters for the wallet choice.
func DetectPlatform(rawUserAgent string) passModel.Platform {
	if rawUserAgent == "" {
		return passModel.PlatformUnknown
	}
	ua := useragent.New(rawUserAgent)
	osInfo := ua.OSInfo()

	switch {
	case strings.Contains(osInfo.Name, "iPhone"),
		strings.Contains(osInfo.Name, "iPad"),
		strings.Contains(osInfo.Name, "iOS"),
		strings.Contains(osInfo.Name, "Mac OS"):
		return passModel.PlatformApple
	case strings.Contains(osInfo.Name, "Android"),
		strings.Contains(osInfo.Name, "Chrome OS"):
		return passModel.PlatformGoogle
	default:
		return passModel.PlatformUnknown
	}
}

// IsInAppBrowser reports whether the user agent is an embedded webview.
// OAuth providers reject these, so the claim page must steer the user to
// a real browser first.
func IsInAppBrowser(rawUserAgent string) bool {
	for _, marker := range []string{"Instagram", "FBAN", "FBAV", "Line/", "wv)"} {
		if strings.Contains(rawUserAgent, marker) {
			return true
		}
	}
	return false
}

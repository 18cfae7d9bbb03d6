// Package frame models raw capture frames and the filename convention
// that carries their provenance.
//
// The capture source drops extensionless PNGs into the temp tree named
//
//	YYYYMMDD-HHMMSS-<uuid>-<app_id>
//
// The wall-clock prefix is informational; the timeline timestamp of a
// frame is its filesystem birthtime (mtime where birthtime is
// unavailable), which survives renames and is what the builder orders by.
package frame

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	namePrefixRe = regexp.MustCompile(`^(\d{8})-(\d{6})`)
	unsafeRunsRe = regexp.MustCompile(`[^A-Za-z0-9.]+`)
)

// Event is one captured frame placed on the timeline.
type Event struct {
	Path      string
	Timestamp float64 // epoch seconds
	AppID     *string // nil when the filename carries no app id
	Width     int
	Height    int
}

// SanitizeAppID normalizes an app bundle identifier for filename use.
// Letters, digits, and dots pass through; each run of anything else
// collapses to a single underscore. Empty input becomes "unknown".
func SanitizeAppID(appID string) string {
	if appID == "" {
		return "unknown"
	}
	return unsafeRunsRe.ReplaceAllString(appID, "_")
}

// GenerateChunkName builds a unique frame filename for a capture taken at
// the given instant. The short uuid disambiguates captures landing in the
// same second.
func GenerateChunkName(at time.Time, appID string) string {
	shortID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", at.Format("20060102-150405"), shortID, SanitizeAppID(appID))
}

// ParseTimestampFromName extracts the epoch timestamp encoded in a frame
// filename, or false when the name does not carry the prefix.
func ParseTimestampFromName(name string) (float64, bool) {
	m := namePrefixRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	t, err := time.ParseInLocation("20060102150405", m[1]+m[2], time.Local)
	if err != nil {
		return 0, false
	}
	return float64(t.Unix()), true
}

// ParseAppFromName extracts the app id segment of a frame filename, or
// nil when the name carries none. A trailing media extension is stripped
// so names that gained one downstream still resolve.
func ParseAppFromName(name string) *string {
	m := namePrefixRe.FindString(name)
	if m == "" {
		return nil
	}

	rest := name[len(m):]
	if !strings.HasPrefix(rest, "-") {
		return nil
	}
	parts := strings.SplitN(rest[1:], "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil
	}

	appID := parts[1]
	if i := strings.LastIndex(appID, "."); i >= 0 {
		switch appID[i+1:] {
		case "png", "jpg", "jpeg", "mp4", "mov":
			appID = appID[:i]
		}
	}
	if appID == "" {
		return nil
	}
	return &appID
}

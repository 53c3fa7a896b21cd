package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseName names reports when the caller gives none.
const DefaultBaseName = "unpaid_exams"

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename makes name safe for Content-Disposition and object keys.
// Runs of other characters become a single underscore and the result is
// capped at 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized base}_{YYYY-MM-DD}.{ext} for today.
func BuildFilename(base string, f Format) string {
	return buildFilename(base, f, time.Now())
}

func buildFilename(base string, f Format, now time.Time) string {
	sanitized := SanitizeFilename(base)
	if sanitized == "" {
		sanitized = DefaultBaseName
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, now.Format("2006-01-02"), f)
}

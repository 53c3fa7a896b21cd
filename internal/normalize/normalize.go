// Package normalize canonicalizes patient names, exam descriptions and dates
// so records from heterogeneous sources compare reliably.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"medrecon/internal/domain"
)

// DateLayout is the canonical textual date form: day/month/four-digit year.
const DateLayout = "02/01/2006"

// nonWord matches anything that is neither a letter, a digit nor ASCII whitespace.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// numericDate matches d/m/y style dates with "/", "-" or "." separators.
var numericDate = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})$`)

// onlyDigits matches bare digit runs, which are never treated as dates here.
var onlyDigits = regexp.MustCompile(`^\d+$`)

// Text lowercases s, strips accents and punctuation and collapses whitespace.
// Text(Text(s)) == Text(s) for every s.
func Text(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s, _, _ = transform.String(transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), s)
	s = nonWord.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// ParseDate reads s as a calendar day, preferring day-before-month when the
// order is ambiguous. The result is midnight UTC. ok is false for empty or
// unparseable input.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || onlyDigits.MatchString(s) {
		return time.Time{}, false
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		// 12/25/2024 cannot be day-first; read it month-first instead.
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		return civil(year, month, day)
	}

	parsed, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return civil(parsed.Year(), int(parsed.Month()), parsed.Day())
}

func civil(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Date canonicalizes s to DateLayout, or returns "" when s cannot be parsed.
func Date(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return FormatDate(t)
}

// Record returns r with canonical patient, exam and date fields. An
// unparseable date becomes "", which the matcher treats as unusable.
func Record(r domain.Record) domain.Record {
	return domain.Record{
		Patient: Text(r.Patient),
		Date:    Date(r.Date),
		Exam:    Text(r.Exam),
	}
}

// Records normalizes every record of rs into a new slice. Bad rows are never
// an error; their offending fields come back empty.
func Records(rs []domain.Record) []domain.Record {
	out := make([]domain.Record, len(rs))
	for i := range rs {
		out[i] = Record(rs[i])
	}
	return out
}

package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date and time parsing for heuristic extraction. The model is asked
// for UTC basic format but frequently answers with whatever notation
// the source page used, so several common textual forms are accepted
// and normalized to UTC.
//
// Precedence for ambiguous input: unambiguous forms (ISO 8601, ICS
// basic, named months) are tried first; purely numeric slash or dash
// dates like 3/4/2025 then resolve as month/day unless dayFirst is
// set (config date_order: dmy).

// datetimeLayouts carry both a date and a time-of-day.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102T150405Z",
	"20060102T150405",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"2 January 2006 15:04",
}

// dateLayouts are date-only forms.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// parseDateTime parses s into a UTC instant. dateOnly reports that s
// carried no time-of-day (the result is midnight UTC).
func parseDateTime(s string, dayFirst bool) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty date")
	}

	for _, layout := range datetimeLayouts {
		if parsed, perr := time.Parse(layout, s); perr == nil {
			return parsed.UTC(), false, nil
		}
	}

	if d, derr := parseDate(s, dayFirst); derr == nil {
		return d, true, nil
	}

	// Last resort: "<date> <time>" split at the final space pair,
	// e.g. "3/10/2025 6:00 PM".
	if i := strings.IndexAny(s, " \t"); i > 0 {
		datePart := strings.TrimSpace(s[:i])
		timePart := strings.TrimSpace(s[i:])
		if d, derr := parseDate(datePart, dayFirst); derr == nil {
			if hh, mm, terr := parseTimeOfDay(timePart); terr == nil {
				return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), false, nil
			}
		}
	}

	return time.Time{}, false, fmt.Errorf("unrecognized date %q", s)
}

// parseDate parses a date-only value to midnight UTC.
func parseDate(s string, dayFirst bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return parseNumericDate(s, dayFirst)
}

// parseNumericDate handles A/B/YYYY and A-B-YYYY. A is the month
// unless dayFirst is set; when the preferred reading is impossible
// (e.g. 25/3/2025 with month-first) the other order is used.
func parseNumericDate(s string, dayFirst bool) (time.Time, error) {
	sep := "/"
	if !strings.Contains(s, "/") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}

	a, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	if year < 100 {
		year += 2000
	}

	month, day := a, b
	if dayFirst {
		month, day = b, a
	}
	if month > 12 && day <= 12 {
		month, day = day, month
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// parseTimeOfDay parses a clock time like "18:00" or "6:00 PM".
func parseTimeOfDay(s string) (hour, minute int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " UTC")

	for _, layout := range timeLayouts {
		if parsed, perr := time.Parse(layout, s); perr == nil {
			return parsed.Hour(), parsed.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("unrecognized time %q", s)
}

// looksLikeDate reports whether s parses as a date or date-time; used
// to classify unlabeled lines in heuristic blocks.
func looksLikeDate(s string, dayFirst bool) bool {
	_, _, err := parseDateTime(s, dayFirst)
	return err == nil
}

func looksLikeTime(s string) bool {
	_, _, err := parseTimeOfDay(s)
	return err == nil
}

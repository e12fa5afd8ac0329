package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "webcal/internal/log"
)

// ParsedEvent is the normalized form of a VEVENT read from a local
// calendar file, before recurrence expansion.
type ParsedEvent struct {
	File string // originating .ics file

	UID string

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, when this VEVENT overrides one instance
}

// IsOverride reports whether this VEVENT replaces a single instance of
// a recurring event.
func (p *ParsedEvent) IsOverride() bool { return p.Recurrence != nil }

// ReadCalendar parses one ICS payload into ParsedEvents. Individual
// malformed VEVENTs are logged and skipped; the payload as a whole
// must be a parseable calendar.
func ReadCalendar(file string, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := readVEvent(file, ve)
		if perr != nil {
			appLog.Warn("skipping unparseable VEVENT", "file", file, "reason", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("calendar read", "file", file, "event_count", len(events))
	return events, nil
}

func readVEvent(file string, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{File: file}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	// Timezone handling (VTIMEZONE/TZID) is the library's.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		out.AllDay = isDateValue(dtStart)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseBasicTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseBasicTime(p.Value); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

// isDateValue reports a DTSTART carrying VALUE=DATE or a bare
// YYYYMMDD value, i.e. an all-day event.
func isDateValue(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseBasicTime parses the ICS basic date/date-time forms used by
// EXDATE and RECURRENCE-ID values.
func parseBasicTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

// Package extract turns a raw model response into calendar events.
//
// The response is not trusted to be well-formed: the model may wrap
// its output in commentary, drop fields, or invent its own layout. A
// strict pass over BEGIN:VEVENT blocks (the format the prompt asks
// for) runs first; when the response contains none, a line-oriented
// heuristic pass assembles events from labeled field blocks.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	appLog "webcal/internal/log"
	"webcal/internal/model"
)

// Path records which parse strategy produced the events, for logging;
// downstream handling does not depend on it.
type Path string

const (
	// PathStructured: events came from well-formed VEVENT blocks.
	PathStructured Path = "structured"
	// PathHeuristic: events were assembled from labeled text blocks.
	PathHeuristic Path = "heuristic"
	// PathEmpty: the response was text but contained nothing
	// event-like. This is a valid outcome, not an error.
	PathEmpty Path = "empty"
)

// ParseError reports a response that is not parseable text at all
// (empty or null input). A response with no recognizable events is
// PathEmpty, not a ParseError.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("model response: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Options control parsing behavior.
type Options struct {
	// DayFirst resolves numeric dates like 3/4/2025 as day/month.
	DayFirst bool
}

// Result is the outcome of one parse.
type Result struct {
	Path   Path
	Events []model.Event
}

var veventBlockRe = regexp.MustCompile(`(?s)BEGIN:VEVENT.*?END:VEVENT`)

// Parse extracts events from a raw model response. Partially-specified
// blocks lacking a title or a parseable start date are dropped rather
// than failing the run; all surviving events are normalized (end >=
// start, one-hour default duration).
func Parse(response string, opts Options) (Result, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return Result{}, &ParseError{Err: fmt.Errorf("empty response")}
	}

	var (
		path   Path
		events []model.Event
	)

	if blocks := veventBlockRe.FindAllString(trimmed, -1); len(blocks) > 0 {
		path = PathStructured
		for _, block := range blocks {
			ev, err := parseVEventBlock(block, opts)
			if err != nil {
				appLog.Warn("dropping malformed VEVENT block", "reason", err)
				continue
			}
			events = append(events, ev)
		}
	} else {
		path = PathHeuristic
		events = parseHeuristic(trimmed, opts)
	}

	events = lo.Filter(events, func(ev model.Event, _ int) bool {
		return ev.Valid()
	})
	for i := range events {
		events[i].Normalize()
	}

	if len(events) == 0 {
		return Result{Path: PathEmpty}, nil
	}

	appLog.Debug("parse completed", "path", string(path), "event_count", len(events))
	return Result{Path: path, Events: events}, nil
}

// parseVEventBlock parses a single BEGIN:VEVENT..END:VEVENT block
// line by line. Deliberately more tolerant than an RFC 5545 parser:
// the model's output is close to ICS but rarely exact.
func parseVEventBlock(block string, opts Options) (model.Event, error) {
	var ev model.Event

	for _, line := range unfoldLines(block) {
		name, value, ok := splitProperty(line)
		if !ok {
			continue
		}
		switch name {
		case "SUMMARY":
			ev.Title = unescapeText(value)
		case "DESCRIPTION":
			ev.Description = unescapeText(value)
		case "LOCATION":
			ev.Location = unescapeText(value)
		case "DTSTART":
			t, dateOnly, err := parseDateTime(value, opts.DayFirst)
			if err != nil {
				return ev, fmt.Errorf("DTSTART: %w", err)
			}
			ev.Start = t
			ev.DateOnly = dateOnly
		case "DTEND":
			if t, _, err := parseDateTime(value, opts.DayFirst); err == nil {
				ev.End = t
			}
		}
	}

	if ev.Title == "" {
		return ev, fmt.Errorf("missing SUMMARY")
	}
	if ev.Start.IsZero() {
		return ev, fmt.Errorf("missing DTSTART")
	}
	return ev, nil
}

// unfoldLines splits a block into lines, rejoining RFC 5545 folded
// continuation lines (leading space or tab).
func unfoldLines(block string) []string {
	raw := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			// Unfolding removes exactly one leading whitespace octet.
			out[len(out)-1] += line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitProperty splits "NAME;PARAMS:value" into its uppercase name
// and value, dropping parameters.
func splitProperty(line string) (name, value string, ok bool) {
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", "", false
	}
	name = strings.ToUpper(strings.TrimSpace(line[:i]))
	if j := strings.Index(name, ";"); j >= 0 {
		name = name[:j]
	}
	return name, strings.TrimSpace(line[i+1:]), true
}

// unescapeText reverses RFC 5545 TEXT escaping.
func unescapeText(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)
	return r.Replace(s)
}

// Field label sets for the heuristic pass, all lowercase.
var (
	titleLabels    = []string{"event", "title", "name", "summary"}
	dateLabels     = []string{"date", "when", "day"}
	startLabels    = []string{"start time", "start", "starts", "time", "from"}
	endLabels      = []string{"end time", "end", "ends", "until", "to"}
	locationLabels = []string{"location", "venue", "where", "place"}
	descLabels     = []string{"description", "details", "notes", "info"}
)

var blockDelimiterRe = regexp.MustCompile(`^\s*(?:[-=*_]{3,}|#+\s.*)\s*$`)

// parseHeuristic assembles events from blocks of labeled lines
// separated by blank lines or delimiter markers.
func parseHeuristic(text string, opts Options) []model.Event {
	var events []model.Event
	for _, block := range splitBlocks(text) {
		if ev, ok := parseHeuristicBlock(block, opts); ok {
			events = append(events, ev)
		}
	}
	return events
}

func splitBlocks(text string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || blockDelimiterRe.MatchString(trimmed) {
			flush()
			continue
		}
		current = append(current, trimmed)
	}
	flush()
	return blocks
}

// parseHeuristicBlock builds one event out of a contiguous block of
// lines. Blocks without a title or a parseable date are rejected.
func parseHeuristicBlock(lines []string, opts Options) (model.Event, bool) {
	var (
		ev       model.Event
		date     time.Time
		hasDate  bool
		startHH  = -1
		startMM  int
		endHH    = -1
		endMM    int
		startRaw string
		endRaw   string
	)

	for _, line := range lines {
		line = strings.TrimLeft(line, "-*• \t")

		label, value := splitLabel(line)
		switch {
		case label == "":
			// Unlabeled line: date-like, time-like, or a title
			// candidate, in that order.
			switch {
			case looksLikeDate(line, opts.DayFirst):
				if t, dateOnly, err := parseDateTime(line, opts.DayFirst); err == nil {
					date, hasDate = t, true
					ev.DateOnly = dateOnly
				}
			case looksLikeTime(line):
				if hh, mm, err := parseTimeOfDay(line); err == nil && startHH < 0 {
					startHH, startMM = hh, mm
				}
			case ev.Title == "":
				ev.Title = line
			}
		case matchLabel(label, titleLabels):
			if ev.Title == "" {
				ev.Title = value
			}
		case matchLabel(label, dateLabels):
			if t, dateOnly, err := parseDateTime(value, opts.DayFirst); err == nil {
				date, hasDate = t, true
				ev.DateOnly = dateOnly
			}
		case matchLabel(label, startLabels):
			startRaw = value
		case matchLabel(label, endLabels):
			endRaw = value
		case matchLabel(label, locationLabels):
			if ev.Location == "" {
				ev.Location = value
			}
		case matchLabel(label, descLabels):
			if ev.Description == "" {
				ev.Description = value
			}
		}
	}

	// A start field may carry a bare time or a full date-time; the
	// latter also supplies the date.
	if startRaw != "" {
		if hh, mm, err := parseTimeOfDay(startRaw); err == nil {
			startHH, startMM = hh, mm
		} else if t, dateOnly, err := parseDateTime(startRaw, opts.DayFirst); err == nil {
			date, hasDate = t, true
			ev.DateOnly = dateOnly
			if !dateOnly {
				startHH, startMM = t.Hour(), t.Minute()
				date = t.Truncate(24 * time.Hour)
			}
		}
	}
	if endRaw != "" {
		if hh, mm, err := parseTimeOfDay(endRaw); err == nil {
			endHH, endMM = hh, mm
		} else if t, _, err := parseDateTime(endRaw, opts.DayFirst); err == nil && !t.IsZero() {
			ev.End = t
		}
	}

	if ev.Title == "" || !hasDate {
		return model.Event{}, false
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if startHH >= 0 {
		ev.Start = day.Add(time.Duration(startHH)*time.Hour + time.Duration(startMM)*time.Minute)
		ev.DateOnly = false
	} else {
		ev.Start = day
		ev.DateOnly = true
	}
	if ev.End.IsZero() && endHH >= 0 {
		ev.End = day.Add(time.Duration(endHH)*time.Hour + time.Duration(endMM)*time.Minute)
	}

	return ev, true
}

// splitLabel splits "Label: value"; returns "" label when the line has
// no colon or the would-be label does not look like a field name
// (clock times like "18:00" must stay unlabeled).
func splitLabel(line string) (label, value string) {
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", line
	}
	l := strings.ToLower(strings.TrimSpace(line[:i]))
	if len(l) > 20 || !isAlphaSpace(l) {
		return "", line
	}
	return l, strings.TrimSpace(line[i+1:])
}

func isAlphaSpace(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != ' ' {
			return false
		}
	}
	return s != ""
}

func matchLabel(label string, candidates []string) bool {
	return lo.Contains(candidates, label)
}

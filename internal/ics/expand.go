package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "webcal/internal/log"
	"webcal/internal/model"
)

// occurrenceCap bounds expansion of a single event so a pathological
// RRULE cannot blow up the listing.
const occurrenceCap = 5000

// Window is the half-open time range and display timezone for
// recurrence expansion.
type Window struct {
	Start, End time.Time

	// Location is the display timezone; time.Local when nil.
	Location *time.Location
}

// Expand turns parsed events into concrete occurrences inside the
// window, resolving RRULE recurrence, EXDATE exclusions, and
// RECURRENCE-ID overrides. Occurrences are returned sorted by start
// time in the window's timezone.
func Expand(events []ParsedEvent, w Window) ([]model.Occurrence, error) {
	if w.End.Before(w.Start) {
		return nil, errors.New("expand: window end before start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}

	base := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		} else {
			base[ev.UID] = append(base[ev.UID], ev)
		}
	}

	var out []model.Occurrence
	for uid, evs := range base {
		for _, ev := range evs {
			out = append(out, expandOne(ev, overrides[uid], w)...)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func expandOne(ev ParsedEvent, overrides []ParsedEvent, w Window) []model.Occurrence {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, w.Start, w.End) {
			return nil
		}
		start, end, src := applyOverride(ev, overrides, ev.Start, ev.End)
		return []model.Occurrence{makeOccurrence(src, start, end, w.Location)}
	}

	rule, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("skipping unparseable RRULE", "uid", ev.UID, "rrule", ev.RawRRule, "err", err)
		return nil
	}
	rule.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	starts := set.Between(w.Start.In(ev.Start.Location()), w.End.In(ev.Start.Location()), true)
	if len(starts) > occurrenceCap {
		appLog.Warn("recurrence expansion truncated", "uid", ev.UID, "cap", occurrenceCap)
		starts = starts[:occurrenceCap]
	}

	duration := ev.End.Sub(ev.Start)
	out := make([]model.Occurrence, 0, len(starts))
	for _, occStart := range starts {
		var occEnd time.Time
		if ev.AllDay {
			day := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = day
			occEnd = day.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(duration)
		}

		start, end, src := applyOverride(ev, overrides, occStart, occEnd)
		out = append(out, makeOccurrence(src, start, end, w.Location))
	}
	return out
}

// applyOverride swaps in the override VEVENT whose RECURRENCE-ID
// matches this instance's start; otherwise the computed start/end pass
// through unchanged.
func applyOverride(ev ParsedEvent, overrides []ParsedEvent, start, end time.Time) (time.Time, time.Time, ParsedEvent) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(start.Location()).Equal(start) {
			return ov.Start, ov.End, ov
		}
	}
	return start, end, ev
}

func makeOccurrence(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Occurrence {
	return model.Occurrence{
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start.In(loc),
		End:         end.In(loc),
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

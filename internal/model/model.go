package model

import "time"

// DefaultDuration is assumed when a source gives no usable end time.
const DefaultDuration = time.Hour

// Event is a single extracted calendar event. Instances are built by
// the extractor, passed through Normalize once, and treated as
// immutable afterwards.
type Event struct {
	Title       string
	Description string
	Location    string

	Start time.Time
	End   time.Time

	// DateOnly is set when the source gave a date without a
	// time-of-day; Start then defaults to midnight UTC.
	DateOnly bool
}

// Normalize enforces the event invariants:
//
//   - a missing End becomes Start + DefaultDuration
//   - an End before Start is recomputed as Start + DefaultDuration
//
// Callers must have set a non-zero Start; Valid reports that.
func (e *Event) Normalize() {
	if e.Start.IsZero() {
		return
	}
	if e.End.IsZero() || e.End.Before(e.Start) {
		e.End = e.Start.Add(DefaultDuration)
	}
}

// Valid reports whether the event satisfies the minimum contract the
// serializer relies on.
func (e *Event) Valid() bool {
	return e.Title != "" && !e.Start.IsZero()
}

// Occurrence is one concrete instance of an event from a local ICS
// file, after recurrence expansion into the display timezone.
type Occurrence struct {
	UID string

	Summary     string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time
}

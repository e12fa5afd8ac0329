// Package ics converts between extracted events and iCalendar text.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"webcal/internal/model"
)

const prodID = "-//webcal//Website Event Scraper//EN"

// SerializationError reports an internal invariant violation: an event
// that should never have survived extraction reached the serializer.
type SerializationError struct {
	Title string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize event %q: %v", e.Title, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Serialize renders events as a complete iCalendar document. The
// output is valid RFC 5545 text for any input, including zero events;
// escaping and 75-octet line folding are handled by the library.
//
// Start and end times are emitted in UTC basic form
// (YYYYMMDDTHHMMSSZ). Each VEVENT gets a fresh UUID-based UID and a
// DTSTAMP of now.
func Serialize(events []model.Event) (string, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")

	now := time.Now().UTC()

	for _, ev := range events {
		if ev.Start.IsZero() {
			// Extraction guarantees a start; reaching here is a
			// parser bug, not bad input.
			return "", &SerializationError{Title: ev.Title, Err: fmt.Errorf("event has no start time")}
		}
		if ev.Title == "" {
			return "", &SerializationError{Err: fmt.Errorf("event has no title")}
		}

		ve := cal.AddEvent(uuid.NewString() + "@webcal")
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start.UTC())
		ve.SetEndAt(ev.End.UTC())
		ve.SetSummary(ev.Title)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
	}

	return cal.Serialize(), nil
}

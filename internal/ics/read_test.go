package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@test\r\n" +
	"DTSTAMP:20250301T000000Z\r\n" +
	"DTSTART:20250303T090000Z\r\n" +
	"DTEND:20250303T091500Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"EXDATE:20250305T090000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:offsite@test\r\n" +
	"DTSTAMP:20250301T000000Z\r\n" +
	"DTSTART:20250310T130000Z\r\n" +
	"DTEND:20250310T170000Z\r\n" +
	"SUMMARY:Team Offsite\r\n" +
	"LOCATION:Lakeside\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestReadCalendar(t *testing.T) {
	events, err := ReadCalendar("sample.ics", []byte(sampleCalendar))
	require.NoError(t, err)
	require.Len(t, events, 2)

	standup := events[0]
	assert.Equal(t, "standup@test", standup.UID)
	assert.Equal(t, "Standup", standup.Summary)
	assert.Equal(t, "FREQ=DAILY;COUNT=5", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)
	assert.False(t, standup.AllDay)
	assert.False(t, standup.IsOverride())

	offsite := events[1]
	assert.Equal(t, "Team Offsite", offsite.Summary)
	assert.Equal(t, "Lakeside", offsite.Location)
	assert.True(t, offsite.Start.Equal(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)))
}

func TestReadCalendarEmptyBody(t *testing.T) {
	_, err := ReadCalendar("empty.ics", nil)
	assert.Error(t, err)
}

func TestExpandRecurringWithExdate(t *testing.T) {
	events, err := ReadCalendar("sample.ics", []byte(sampleCalendar))
	require.NoError(t, err)

	window := Window{
		Start:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	}

	occurrences, err := Expand(events, window)
	require.NoError(t, err)

	// Standup: 5 daily instances minus the EXDATE, plus the offsite.
	require.Len(t, occurrences, 5)

	var standups, offsites int
	for _, occ := range occurrences {
		switch occ.Summary {
		case "Standup":
			standups++
			assert.NotEqual(t, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC), occ.Start)
			assert.Equal(t, 15*time.Minute, occ.End.Sub(occ.Start))
		case "Team Offsite":
			offsites++
		}
	}
	assert.Equal(t, 4, standups)
	assert.Equal(t, 1, offsites)

	// Sorted by start.
	for i := 1; i < len(occurrences); i++ {
		assert.False(t, occurrences[i].Start.Before(occurrences[i-1].Start))
	}
}

func TestExpandWindowValidation(t *testing.T) {
	_, err := Expand(nil, Window{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestExpandOverrideReplacesInstance(t *testing.T) {
	cal := strings.ReplaceAll(sampleCalendar, "END:VCALENDAR\r\n", "")
	cal += "BEGIN:VEVENT\r\n" +
		"UID:standup@test\r\n" +
		"DTSTAMP:20250301T000000Z\r\n" +
		"RECURRENCE-ID:20250304T090000Z\r\n" +
		"DTSTART:20250304T100000Z\r\n" +
		"DTEND:20250304T101500Z\r\n" +
		"SUMMARY:Standup (moved)\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	events, err := ReadCalendar("sample.ics", []byte(cal))
	require.NoError(t, err)

	occurrences, err := Expand(events, Window{
		Start:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	})
	require.NoError(t, err)

	var moved bool
	for _, occ := range occurrences {
		if occ.Summary == "Standup (moved)" {
			moved = true
			assert.True(t, occ.Start.Equal(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)))
		}
	}
	assert.True(t, moved, "override instance not applied")
}

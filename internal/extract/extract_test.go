package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyResponseFails(t *testing.T) {
	for _, input := range []string{"", "   \n\t ", "null", "NULL"} {
		_, err := Parse(input, Options{})
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "input %q", input)
	}
}

func TestParseNoEventsIsEmptyNotError(t *testing.T) {
	res, err := Parse("I could not find any events on this page, sorry!", Options{})
	require.NoError(t, err)
	assert.Equal(t, PathEmpty, res.Path)
	assert.Empty(t, res.Events)
}

func TestParseStructuredVEventBlocks(t *testing.T) {
	response := `Here are the events I found:

BEGIN:VEVENT
DTSTART:20250310T180000Z
DTEND:20250310T200000Z
SUMMARY:Tech Talk
LOCATION:Main Hall
DESCRIPTION:An evening talk\, with Q&A
END:VEVENT

BEGIN:VEVENT
DTSTART:20250311T090000Z
SUMMARY:Morning Workshop
END:VEVENT

Let me know if you need anything else.`

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	assert.Equal(t, PathStructured, res.Path)
	require.Len(t, res.Events, 2)

	first := res.Events[0]
	assert.Equal(t, "Tech Talk", first.Title)
	assert.Equal(t, "Main Hall", first.Location)
	assert.Equal(t, "An evening talk, with Q&A", first.Description)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), first.End)

	// Missing DTEND defaults to one hour after the start.
	second := res.Events[1]
	assert.Equal(t, "Morning Workshop", second.Title)
	assert.Equal(t, second.Start.Add(time.Hour), second.End)
}

func TestParseStructuredDropsMalformedBlocks(t *testing.T) {
	response := `BEGIN:VEVENT
DTSTART:20250310T180000Z
SUMMARY:Good Event
END:VEVENT
BEGIN:VEVENT
SUMMARY:No Date Here
END:VEVENT
BEGIN:VEVENT
DTSTART:20250312T100000Z
END:VEVENT`

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Good Event", res.Events[0].Title)
}

func TestParseStructuredEndBeforeStartIsRecomputed(t *testing.T) {
	response := `BEGIN:VEVENT
DTSTART:20250310T180000Z
DTEND:20250310T170000Z
SUMMARY:Backwards Event
END:VEVENT`

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, res.Events[0].Start.Add(time.Hour), res.Events[0].End)
}

func TestParseHeuristicLabeledBlock(t *testing.T) {
	response := "Event: Tech Talk\nDate: 2025-03-10\nTime: 18:00\nLocation: Main Hall"

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	assert.Equal(t, PathHeuristic, res.Path)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, "Tech Talk", ev.Title)
	assert.Equal(t, "Main Hall", ev.Location)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC), ev.End)
	assert.False(t, ev.DateOnly)
}

func TestParseHeuristicMultipleBlocks(t *testing.T) {
	response := `Title: Jazz Night
When: March 12, 2025
Start: 7:30 PM
End: 10:00 PM
Venue: Blue Note

---

Title: Book Club
When: 2025-03-15
Details: Monthly meeting`

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	assert.Equal(t, PathHeuristic, res.Path)
	require.Len(t, res.Events, 2)

	jazz := res.Events[0]
	assert.Equal(t, "Jazz Night", jazz.Title)
	assert.Equal(t, "Blue Note", jazz.Location)
	assert.Equal(t, time.Date(2025, 3, 12, 19, 30, 0, 0, time.UTC), jazz.Start)
	assert.Equal(t, time.Date(2025, 3, 12, 22, 0, 0, 0, time.UTC), jazz.End)

	book := res.Events[1]
	assert.Equal(t, "Book Club", book.Title)
	assert.Equal(t, "Monthly meeting", book.Description)
	assert.True(t, book.DateOnly)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), book.Start)
	assert.Equal(t, time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC), book.End)
}

func TestParseHeuristicUnlabeledLines(t *testing.T) {
	response := `Spring Concert
2025-04-01
19:00`

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Spring Concert", res.Events[0].Title)
	assert.Equal(t, time.Date(2025, 4, 1, 19, 0, 0, 0, time.UTC), res.Events[0].Start)
}

func TestParseHeuristicDropsBlocksWithoutDate(t *testing.T) {
	response := `Event: Mystery Meetup
Location: Somewhere

Event: Real Event
Date: 2025-05-01`

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Real Event", res.Events[0].Title)
}

func TestParseFoldedVEventLines(t *testing.T) {
	response := "BEGIN:VEVENT\r\nDTSTART:20250310T180000Z\r\nSUMMARY:A very long event title that\r\n  continues on the next line\r\nEND:VEVENT"

	res, err := Parse(response, Options{})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "A very long event title that continues on the next line", res.Events[0].Title)
}

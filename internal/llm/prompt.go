package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// truncationNote is appended to the prompt when page text was cut to
// the character budget, so the model knows the listing may be partial.
const truncationNote = "\n\n(Note: the website content above was truncated; some events near the end of the page may be missing.)"

const promptTemplate = `Extract all events from the following website content and format them as ICS (iCalendar) format.

Website content:
%s

Please extract:
- Event title
- Start date and time
- End date and time (if available)
- Description (if available)
- Location (if available)

Format the output as valid ICS format. Each event should start with BEGIN:VEVENT and end with END:VEVENT.
Use UTC timezone format (YYYYMMDDTHHMMSSZ) for dates.
If an end time is missing, assume the event is 1 hour long.

Example format:
BEGIN:VEVENT
DTSTART:20240101T120000Z
DTEND:20240101T130000Z
SUMMARY:Event Title
DESCRIPTION:Event description
LOCATION:Event location
END:VEVENT

Now extract and format all events from the website content:`

// BuildPrompt embeds pageText into the extraction instruction
// template, truncating it to maxChars first. Pure function; maxChars
// <= 0 disables truncation.
func BuildPrompt(pageText string, maxChars int) string {
	truncated := false
	if maxChars > 0 && len(pageText) > maxChars {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(pageText[cut]) {
			cut--
		}
		pageText = pageText[:cut] + "..."
		truncated = true
	}

	prompt := fmt.Sprintf(promptTemplate, strings.TrimSpace(pageText))
	if truncated {
		prompt += truncationNote
	}
	return prompt
}

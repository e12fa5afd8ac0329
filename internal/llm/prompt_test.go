package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptEmbedsPageText(t *testing.T) {
	prompt := BuildPrompt("Concert at the park, June 5th", 0)

	assert.Contains(t, prompt, "Concert at the park, June 5th")
	assert.Contains(t, prompt, "BEGIN:VEVENT")
	assert.Contains(t, prompt, "YYYYMMDDTHHMMSSZ")
	assert.NotContains(t, prompt, "truncated")
}

func TestBuildPromptTruncates(t *testing.T) {
	long := strings.Repeat("events here ", 2000)
	prompt := BuildPrompt(long, 100)

	assert.Contains(t, prompt, "truncated")
	// The embedded text is cut to the budget, not the whole prompt.
	assert.Less(t, len(prompt), len(long))
}

func TestBuildPromptNoTruncationUnderBudget(t *testing.T) {
	prompt := BuildPrompt("short text", 100)
	assert.NotContains(t, prompt, "truncated")
}

// Truncation must not split a multi-byte character at the budget
// boundary.
func TestBuildPromptTruncatesAtRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 200) // two bytes per rune
	for budget := 99; budget <= 102; budget++ {
		prompt := BuildPrompt(long, budget)
		assert.True(t, utf8.ValidString(prompt), "budget %d produced invalid UTF-8", budget)
		assert.Contains(t, prompt, "truncated", "budget %d", budget)
	}
}

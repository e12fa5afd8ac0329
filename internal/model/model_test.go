package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMissingEnd(t *testing.T) {
	ev := Event{
		Title: "Talk",
		Start: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
	}
	ev.Normalize()
	assert.Equal(t, ev.Start.Add(time.Hour), ev.End)
}

func TestNormalizeEndBeforeStart(t *testing.T) {
	ev := Event{
		Title: "Talk",
		Start: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC),
	}
	ev.Normalize()
	assert.Equal(t, ev.Start.Add(time.Hour), ev.End)
}

func TestNormalizeKeepsValidEnd(t *testing.T) {
	end := time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC)
	ev := Event{
		Title: "Talk",
		Start: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		End:   end,
	}
	ev.Normalize()
	assert.Equal(t, end, ev.End)
}

func TestNormalizeNoStartIsNoop(t *testing.T) {
	var ev Event
	ev.Normalize()
	assert.True(t, ev.End.IsZero())
	assert.False(t, ev.Valid())
}

func TestValid(t *testing.T) {
	assert.False(t, (&Event{Title: "x"}).Valid())
	assert.False(t, (&Event{Start: time.Now()}).Valid())
	assert.True(t, (&Event{Title: "x", Start: time.Now()}).Valid())
}

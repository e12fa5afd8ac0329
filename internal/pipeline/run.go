// Package pipeline wires the url → text → prompt → model → events →
// ICS → file sequence. Execution is strictly sequential; any stage
// failure terminates the run and no partial output file is written.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"webcal/internal/extract"
	"webcal/internal/ics"
	"webcal/internal/llm"
	appLog "webcal/internal/log"
)

// WriteError reports that the serialized calendar could not be
// written to the requested path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Deps are the two externally-faulting collaborators, injected so the
// orchestration is testable without a network.
type Deps struct {
	// FetchText returns the visible text of the page at url.
	FetchText func(ctx context.Context, url string) (string, error)

	// Complete sends a prompt to the model and returns the raw
	// completion text.
	Complete func(ctx context.Context, model, prompt string) (string, error)
}

// Options for a single run.
type Options struct {
	URL        string
	OutputPath string
	Model      string

	// MaxChars bounds the page text embedded in the prompt.
	MaxChars int

	// DayFirst resolves ambiguous numeric dates as day/month.
	DayFirst bool

	// Overwrite replaces an existing output file instead of picking
	// the next free numbered name.
	Overwrite bool
}

// Summary reports a completed run.
type Summary struct {
	// OutputPath is the file actually written; it differs from the
	// requested path when that file already existed.
	OutputPath string
	EventCount int

	// ParsePath records which extraction strategy produced the events.
	ParsePath extract.Path
}

// Run executes the full pipeline once. The output file is written
// atomically (temp file + rename) only after serialization succeeds;
// zero extracted events still produce a valid, empty calendar.
func Run(ctx context.Context, opts Options, deps Deps) (Summary, error) {
	var summary Summary

	pageText, err := deps.FetchText(ctx, opts.URL)
	if err != nil {
		return summary, err
	}
	appLog.Debug("page text ready", "chars", len(pageText))

	prompt := llm.BuildPrompt(pageText, opts.MaxChars)

	response, err := deps.Complete(ctx, opts.Model, prompt)
	if err != nil {
		return summary, err
	}

	result, err := extract.Parse(response, extract.Options{DayFirst: opts.DayFirst})
	if err != nil {
		return summary, err
	}
	summary.ParsePath = result.Path
	summary.EventCount = len(result.Events)

	if result.Path == extract.PathEmpty {
		appLog.Info("no events found in model response")
	}

	document, err := ics.Serialize(result.Events)
	if err != nil {
		return summary, err
	}

	outPath := opts.OutputPath
	if !opts.Overwrite {
		outPath = nextAvailablePath(outPath)
		if outPath != opts.OutputPath {
			appLog.Info("output file exists, using next free name", "requested", opts.OutputPath, "using", outPath)
		}
	}

	if err := writeFileAtomic(outPath, []byte(document)); err != nil {
		return summary, &WriteError{Path: outPath, Err: err}
	}
	summary.OutputPath = outPath

	appLog.Info("calendar written",
		"file", outPath,
		"event_count", summary.EventCount,
		"parse_path", string(summary.ParsePath),
	)
	return summary, nil
}

var trailingNumberRe = regexp.MustCompile(`^(.+?)(\d+)$`)

// nextAvailablePath returns path unchanged when it is free, otherwise
// the first of name2.ext, name3.ext, ... that does not exist.
func nextAvailablePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]

	prefix := base
	next := 2
	if m := trailingNumberRe.FindStringSubmatch(base); m != nil {
		prefix = m[1]
		if n, err := strconv.Atoi(m[2]); err == nil {
			next = n + 1
		}
	}

	for {
		candidate := prefix + strconv.Itoa(next) + ext
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		next++
	}
}

// writeFileAtomic writes data via a temp file in the same directory
// followed by a rename, so a failed run never leaves a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".webcal-out-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	appLog "webcal/internal/log"
)

const defaultRenderTimeout = 30 * time.Second

// RenderOptions defines parameters for a Chromium-based page fetch.
type RenderOptions struct {
	// URL to load.
	URL string

	// Timeout bounds the entire navigate-and-extract operation. If
	// zero, defaultRenderTimeout is used.
	Timeout time.Duration
}

// RenderText launches a headless Chromium instance via chromedp,
// navigates to opts.URL, waits for the document body, and returns the
// rendered page's innerText. It is the fallback for pages that build
// their event listings with JavaScript, where the plain HTTP fetch
// sees an empty shell.
func RenderText(parentCtx context.Context, opts RenderOptions) (string, error) {
	if opts.URL == "" {
		return "", &FetchError{URL: opts.URL, Err: fmt.Errorf("render: URL is required")}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRenderTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	appLog.Info("render fetch start", "url", redactURL(opts.URL))

	var text string
	tasks := chromedp.Tasks{
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		// Small extra delay so late XHR-driven listings can paint.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Text("body", &text, chromedp.ByQuery),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", &FetchError{URL: opts.URL, Err: fmt.Errorf("render: chromedp run failed: %w", err)}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &FetchError{URL: opts.URL, Err: fmt.Errorf("render: page has no visible text")}
	}

	appLog.Info("render fetch success", "url", redactURL(opts.URL), "chars", len(text))
	return text, nil
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	appLog "webcal/internal/log"
)

// defaultDownloadName is used when neither the response headers nor
// the URL path yield a usable filename.
const defaultDownloadName = "canvas.ics"

// Download fetches rawURL and saves the body to outputName. When
// outputName is empty, the name comes from the Content-Disposition
// header, then from the URL path, then defaultDownloadName. Returns
// the filename actually written.
func (f *Fetcher) Download(ctx context.Context, rawURL, outputName string) (string, error) {
	if rawURL == "" {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("empty URL")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	setBrowserHeaders(req, f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("%s", resp.Status)}
	}

	if outputName == "" {
		outputName = downloadName(resp, rawURL)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return "", err
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		os.Remove(outputName)
		return "", err
	}

	appLog.Info("download complete", "url", redactURL(rawURL), "file", outputName, "bytes", n)
	return outputName, nil
}

// downloadName picks a filename from Content-Disposition, else the
// last URL path segment, else defaultDownloadName.
func downloadName(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		name := path.Base(u.Path)
		if name != "" && name != "/" && name != "." && strings.Contains(name, ".") {
			return name
		}
	}

	return defaultDownloadName
}

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Events</title>
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <nav>Home | About</nav>
  <header>Site Header</header>
  <main>
    <h1>Upcoming Events</h1>
    <p>Tech Talk on <b>March 10</b> at Main Hall.</p>
  </main>
  <footer>Copyright</footer>
</body>
</html>`

func TestFetchExtractsVisibleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "test-agent/1.0")
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "Upcoming Events")
	assert.Contains(t, text, "Tech Talk on")
	assert.Contains(t, text, "March 10")

	// Scripts, styles, and page chrome are stripped.
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Site Header")
	assert.NotContains(t, text, "Copyright")
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "")
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusForbidden, ferr.Status)
}

func TestFetchEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><script>only()</script></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "")
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Zero(t, ferr.Status)
}

func TestFetchUnreachable(t *testing.T) {
	f := NewFetcher(time.Second, "")
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/")

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
}

func TestHTMLToTextCollapsesWhitespace(t *testing.T) {
	text, err := HTMLToText(strings.NewReader("<p>  one  </p><p>two</p>"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
}

func TestDownloadUsesContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="export.ics"`)
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	f := NewFetcher(5*time.Second, "")
	name, err := f.Download(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "export.ics", name)

	body, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
}

func TestDownloadNameFromURLPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	name, err := NewFetcher(5*time.Second, "").Download(context.Background(), srv.URL+"/feeds/team.ics", "")
	require.NoError(t, err)
	assert.Equal(t, "team.ics", name)
}

func TestDownloadExplicitNameWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="export.ics"`)
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "explicit.ics")
	name, err := NewFetcher(5*time.Second, "").Download(context.Background(), srv.URL, out)
	require.NoError(t, err)
	assert.Equal(t, out, name)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/cal.ics?token=secret"))
	assert.Equal(t, "url://...(redacted)", redactURL("not a url"))
}

package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pagesift/pagesift/internal/model"
)

func testFetcher() *Fetcher {
	return NewFetcher(model.HTTPConfig{
		Timeout:       5 * time.Second,
		UserAgent:     "pagesift-test",
		MaxBodyBytes:  1 << 20,
		RatePerDomain: 1000,
		RateBurst:     1000,
	}, model.CacheConfig{})
}

func testOrchestrator() *Orchestrator {
	logger := slog.New(slog.NewTextHandler(sink{}, nil))
	return NewOrchestrator(testFetcher(), NewDetector(150), 5*time.Second, 100, logger)
}

type sink struct{}

func (sink) Write(p []byte) (int, error) { return len(p), nil }

// articleHTML renders a page with enough body text to clear the paywall
// heuristic.
func articleHTML(title string) string {
	para := strings.Repeat("The reservoir commission published its annual flow measurements and the figures show steady decline across the basin. ", 20)
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head>
<title>%s</title>
<meta property="og:title" content="%s">
<meta name="author" content="Jordan Writer">
</head><body><article><p>%s</p></article></body></html>`, title, title, para)
}

const paywallHTML = `<html><head><title>Story</title></head>
<body><p>Subscribe to continue reading. Already a subscriber? Sign in to continue.</p></body></html>`

func TestDetector(t *testing.T) {
	d := NewDetector(150)
	longText := strings.Repeat("word ", 200)

	cases := []struct {
		name    string
		status  int
		text    string
		blocked bool
	}{
		{"ok long text", 200, longText, false},
		{"401 unauthorized", 401, longText, true},
		{"402 payment required", 402, longText, true},
		{"403 forbidden", 403, longText, true},
		{"short with paywall keyword", 200, "Subscribe to continue reading this story.", true},
		{"short without keywords", 200, "A brief but legitimate note.", false},
		{"long text with keyword", 200, longText + " subscribe today", false},
		{"long text mentioning blocked", 200, longText + " the road was blocked", false},
		{"short text with blocked signal", 200, "Your request was blocked.", true},
	}
	for _, c := range cases {
		blocked, reason := d.IsBlocked(c.status, c.text)
		if blocked != c.blocked {
			t.Errorf("%s: blocked = %v (%q), want %v", c.name, blocked, reason, c.blocked)
		}
	}
}

func TestAcquireOriginalSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML("Basin Flow Report"))
	}))
	defer srv.Close()

	result, err := testOrchestrator().Acquire(context.Background(), srv.URL+"/report")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.Blocked {
		t.Fatalf("blocked: %s", result.BlockReason)
	}
	if result.Source != SourceOriginal {
		t.Errorf("source = %q, want original", result.Source)
	}
	if len(result.Attempts) != 1 || result.Attempts[0] != SourceOriginal {
		t.Errorf("attempts = %v", result.Attempts)
	}
	if result.Doc.Title != "Basin Flow Report" {
		t.Errorf("title = %q", result.Doc.Title)
	}
	if result.Doc.WordCount < 150 {
		t.Errorf("word count = %d", result.Doc.WordCount)
	}
}

func TestAcquireFallsBackToArchiveSnapshot(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()

	snapshot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML("Archived Copy"))
	}))
	defer snapshot.Close()

	archiveAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"archived_snapshots": {"closest": {"available": true, "url": %q}}}`, snapshot.URL)
	}))
	defer archiveAPI.Close()

	o := testOrchestrator()
	o.archiveAPIBase = archiveAPI.URL + "/wayback/available?url="

	result, err := o.Acquire(context.Background(), blocked.URL+"/story")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.Blocked {
		t.Fatalf("blocked: %s", result.BlockReason)
	}
	if result.Source != SourceArchive {
		t.Errorf("source = %q, want archive.org", result.Source)
	}
	want := []string{SourceOriginal, SourceArchive}
	if len(result.Attempts) != len(want) || result.Attempts[0] != want[0] || result.Attempts[1] != want[1] {
		t.Errorf("attempts = %v, want %v", result.Attempts, want)
	}
	if result.Doc.Title != "Archived Copy" {
		t.Errorf("title = %q", result.Doc.Title)
	}
}

func TestAcquireFallsBackToCDX(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, paywallHTML)
	}))
	defer blocked.Close()

	archiveAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"archived_snapshots": {}}`)
	}))
	defer archiveAPI.Close()

	// Snapshot endpoint serves /web/<timestamp>/<url>.
	snapshot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML("CDX Snapshot"))
	}))
	defer snapshot.Close()

	cdxAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[["timestamp"],["20240611000000"]]`)
	}))
	defer cdxAPI.Close()

	o := testOrchestrator()
	o.archiveAPIBase = archiveAPI.URL + "/wayback/available?url="
	o.cdxAPIBase = cdxAPI.URL + "/cdx?url="
	o.snapshotBase = snapshot.URL + "/web/"

	result, err := o.Acquire(context.Background(), blocked.URL+"/story")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.Blocked {
		t.Fatalf("blocked: %s", result.BlockReason)
	}
	if result.Source != SourceWaybackCDX {
		t.Errorf("source = %q, want wayback-cdx", result.Source)
	}
	want := []string{SourceOriginal, SourceArchive, SourceWaybackCDX}
	if len(result.Attempts) != 3 {
		t.Fatalf("attempts = %v, want %v", result.Attempts, want)
	}
	for i := range want {
		if result.Attempts[i] != want[i] {
			t.Errorf("attempts[%d] = %q, want %q", i, result.Attempts[i], want[i])
		}
	}
}

func TestAcquireAllBlockedReturnsAnnotatedOriginal(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, paywallHTML)
	}))
	defer blocked.Close()

	// Every mirror lookup fails outright.
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	o := testOrchestrator()
	o.archiveAPIBase = down.URL + "/a?url="
	o.cdxAPIBase = down.URL + "/c?url="
	o.proxyBase = blocked.URL + "/proxy/"

	result, err := o.Acquire(context.Background(), blocked.URL+"/story")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !result.Blocked {
		t.Fatal("result should stay blocked")
	}
	if result.Source != SourceOriginal {
		t.Errorf("source = %q, want original", result.Source)
	}
	if len(result.Attempts) != 4 {
		t.Errorf("attempts = %v, want all four sources", result.Attempts)
	}
}

func TestAcquirePDFDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testOrchestrator().Acquire(context.Background(), srv.URL+"/paper.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*AcquisitionError); !ok {
		t.Errorf("error type %T, want *AcquisitionError", err)
	}
}

func TestProxyFuncSelection(t *testing.T) {
	proxyFor := NewProxyFunc("http://proxy.internal:3128", "http://sproxy.internal:3128", "example.com, .trusted.net")

	cases := []struct {
		url  string
		want string
	}{
		{"http://other.example.net/page", "http://proxy.internal:3128"},
		{"https://other.example.net/page", "http://sproxy.internal:3128"},
		{"https://example.com/page", ""},
		{"https://sub.example.com/page", ""},
		{"https://api.trusted.net/page", ""},
		{"https://nottrusted.net/page", "http://sproxy.internal:3128"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.url, nil)
		proxy, err := proxyFor(req)
		if err != nil {
			t.Fatalf("%s: %v", c.url, err)
		}
		got := ""
		if proxy != nil {
			got = proxy.String()
		}
		if got != c.want {
			t.Errorf("%s: proxy = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestFetcherReturnsNonSuccessStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "denied")
	}))
	defer srv.Close()

	result, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", result.StatusCode)
	}
	if string(result.Body) != "denied" {
		t.Errorf("body = %q", result.Body)
	}
}

func TestFetcherCachesSuccesses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "cached body")
	}))
	defer srv.Close()

	f := NewFetcher(model.HTTPConfig{
		Timeout:       5 * time.Second,
		MaxBodyBytes:  1 << 20,
		RatePerDomain: 1000,
		RateBurst:     1000,
	}, model.CacheConfig{Enabled: true, TTL: time.Minute})

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Errorf("origin hits = %d, want 1", hits)
	}
}

package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/pagesift/pagesift/internal/extract"
	"github.com/pagesift/pagesift/internal/urlkit"
)

// Fallback source names, in the fixed order they are attempted.
const (
	SourceOriginal   = "original"
	SourceArchive    = "archive.org"
	SourceWaybackCDX = "wayback-cdx"
	SourceProxy      = "proxy"
)

// AcquireResult is the outcome of the acquisition chain. Attempts records
// every source tried, in order, as an explicit value rather than ambient
// state.
type AcquireResult struct {
	Doc         *extract.Document
	Source      string
	StatusCode  int
	Blocked     bool
	BlockReason string
	Attempts    []string
}

// AcquisitionError is a terminal acquisition failure: nothing in the chain
// produced extractable content. It is client-actionable, distinct from
// server faults.
type AcquisitionError struct {
	URL       string
	Reason    string
	Technical string
	Attempts  []string
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed for %s: %s", e.URL, e.Reason)
}

// Orchestrator sequences fetch + extract + block detection across the
// original URL and a fixed list of archive/proxy mirrors.
type Orchestrator struct {
	fetcher        *Fetcher
	detector       *Detector
	attemptTimeout time.Duration
	maxLinks       int
	logger         *slog.Logger

	// Mirror service endpoints; fixed in production, overridden in tests.
	archiveAPIBase string
	cdxAPIBase     string
	snapshotBase   string
	proxyBase      string
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(fetcher *Fetcher, detector *Detector, attemptTimeout time.Duration, maxLinks int, logger *slog.Logger) *Orchestrator {
	if attemptTimeout <= 0 {
		attemptTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		fetcher:        fetcher,
		detector:       detector,
		attemptTimeout: attemptTimeout,
		maxLinks:       maxLinks,
		logger:         logger,
		archiveAPIBase: "https://archive.org/wayback/available?url=",
		cdxAPIBase:     "https://web.archive.org/cdx/search/cdx?output=json&limit=1&sort=reverse&fl=timestamp&url=",
		snapshotBase:   "https://web.archive.org/web/",
		proxyBase:      "https://r.jina.ai/",
	}
}

// Acquire retrieves readable content for the URL. The original URL is tried
// first; blocked results walk the mirror chain in fixed order and stop at
// the first unblocked result. When everything stays blocked the original
// attempt is returned (blocked, annotated with the sources tried) so the
// caller can still offer bypass and archive links.
func (o *Orchestrator) Acquire(ctx context.Context, rawURL string) (*AcquireResult, error) {
	// PDF URLs bypass the mirror chain entirely.
	if urlkit.IsPDF(rawURL) {
		return o.acquirePDF(ctx, rawURL)
	}

	original, err := o.attempt(ctx, SourceOriginal, rawURL, rawURL)
	if err == nil && !original.Blocked {
		return original, nil
	}

	attempts := []string{SourceOriginal}
	var firstErr error
	if err != nil {
		firstErr = err
		o.logger.Warn("original fetch failed, walking fallback chain", "url", rawURL, "error", err)
	} else {
		o.logger.Info("content blocked, walking fallback chain", "url", rawURL, "reason", original.BlockReason)
	}

	for _, source := range []string{SourceArchive, SourceWaybackCDX, SourceProxy} {
		attempts = append(attempts, source)

		mirrorURL, err := o.mirrorURL(ctx, source, rawURL)
		if err != nil {
			o.logger.Debug("mirror lookup failed", "source", source, "error", err)
			continue
		}

		result, err := o.attempt(ctx, source, rawURL, mirrorURL)
		if err != nil {
			o.logger.Debug("mirror fetch failed", "source", source, "error", err)
			continue
		}
		if !result.Blocked {
			result.Attempts = attempts
			return result, nil
		}
	}

	// All mirrors exhausted. Hand back the original (blocked) result when it
	// exists: partial content plus the attempt list is more useful than an
	// opaque failure.
	if original != nil {
		original.Attempts = attempts
		return original, nil
	}

	technical := ""
	if firstErr != nil {
		technical = firstErr.Error()
	}
	return nil, &AcquisitionError{
		URL:       rawURL,
		Reason:    "could not retrieve readable content from the URL or any archive mirror",
		Technical: technical,
		Attempts:  attempts,
	}
}

// attempt performs one bounded fetch+extract+detect cycle.
func (o *Orchestrator) attempt(ctx context.Context, source, originalURL, fetchURL string) (*AcquireResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	fetched, err := o.fetcher.Fetch(attemptCtx, fetchURL)
	if err != nil {
		return nil, err
	}

	doc, err := o.extractDoc(originalURL, fetched)
	if err != nil {
		return nil, err
	}

	blocked, reason := o.detector.IsBlocked(fetched.StatusCode, doc.Text)
	return &AcquireResult{
		Doc:         doc,
		Source:      source,
		StatusCode:  fetched.StatusCode,
		Blocked:     blocked,
		BlockReason: reason,
		Attempts:    []string{source},
	}, nil
}

func (o *Orchestrator) acquirePDF(ctx context.Context, rawURL string) (*AcquireResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	fetched, err := o.fetcher.Fetch(attemptCtx, rawURL)
	if err != nil {
		return nil, &AcquisitionError{
			URL: rawURL, Reason: "could not download the PDF",
			Technical: err.Error(), Attempts: []string{SourceOriginal},
		}
	}
	if fetched.StatusCode < 200 || fetched.StatusCode >= 300 {
		return nil, &AcquisitionError{
			URL: rawURL, Reason: fmt.Sprintf("PDF download returned status %d", fetched.StatusCode),
			Attempts: []string{SourceOriginal},
		}
	}

	doc, err := extract.PDF(fetched.Body)
	if err != nil {
		return nil, &AcquisitionError{
			URL: rawURL, Reason: "the PDF has no extractable text",
			Technical: err.Error(), Attempts: []string{SourceOriginal},
		}
	}

	return &AcquireResult{
		Doc:        doc,
		Source:     SourceOriginal,
		StatusCode: fetched.StatusCode,
		Attempts:   []string{SourceOriginal},
	}, nil
}

// extractDoc routes fetched bytes to the right extractor: PDFs by content
// type, known platforms to metadata extraction, plain text as-is, everything
// else through HTML cleaning.
func (o *Orchestrator) extractDoc(originalURL string, fetched *Result) (*extract.Document, error) {
	contentType := strings.ToLower(fetched.ContentType)

	switch {
	case strings.Contains(contentType, "application/pdf"):
		return extract.PDF(fetched.Body)
	case strings.Contains(contentType, "text/plain"):
		return extract.Plain(fetched.Body), nil
	}

	if platform := urlkit.Classify(originalURL); platform != urlkit.PlatformNone {
		return extract.Social(platform, originalURL, fetched.Body, fetched.ContentType, o.maxLinks)
	}
	return extract.HTML(originalURL, fetched.Body, fetched.ContentType, o.maxLinks)
}

// mirrorURL resolves the fetchable mirror address for a fallback source.
func (o *Orchestrator) mirrorURL(ctx context.Context, source, rawURL string) (string, error) {
	switch source {
	case SourceArchive:
		return o.lookupArchiveSnapshot(ctx, rawURL)
	case SourceWaybackCDX:
		return o.lookupWaybackCDX(ctx, rawURL)
	case SourceProxy:
		return o.proxyBase + rawURL, nil
	}
	return "", fmt.Errorf("unknown fallback source: %s", source)
}

// lookupArchiveSnapshot queries the snapshot availability service for the
// most recent capture.
func (o *Orchestrator) lookupArchiveSnapshot(ctx context.Context, rawURL string) (string, error) {
	lookup := o.archiveAPIBase + url.QueryEscape(rawURL)

	var response struct {
		ArchivedSnapshots struct {
			Closest struct {
				Available bool   `json:"available"`
				URL       string `json:"url"`
			} `json:"closest"`
		} `json:"archived_snapshots"`
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	if err := o.fetcher.FetchJSON(attemptCtx, lookup, &response); err != nil {
		return "", err
	}
	closest := response.ArchivedSnapshots.Closest
	if !closest.Available || closest.URL == "" {
		return "", fmt.Errorf("no archive snapshot for %s", rawURL)
	}
	return closest.URL, nil
}

// lookupWaybackCDX queries the full-history CDX index for the latest
// timestamp and constructs the canonical snapshot URL.
func (o *Orchestrator) lookupWaybackCDX(ctx context.Context, rawURL string) (string, error) {
	lookup := o.cdxAPIBase + url.QueryEscape(rawURL)

	var rows [][]string
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	if err := o.fetcher.FetchJSON(attemptCtx, lookup, &rows); err != nil {
		return "", err
	}
	// First row is the CDX header.
	if len(rows) < 2 || len(rows[1]) == 0 || rows[1][0] == "" {
		return "", fmt.Errorf("no wayback captures for %s", rawURL)
	}
	return fmt.Sprintf("%s%s/%s", o.snapshotBase, rows[1][0], rawURL), nil
}

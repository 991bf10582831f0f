package fetch

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pagesift/pagesift/internal/model"
	"github.com/pagesift/pagesift/internal/urlkit"
)

// Fetcher performs bounded-time HTTP fetches with a platform-appropriate
// client identity, per-domain rate limiting and an optional robots.txt gate.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	limiter   *Limiter
	robots    *RobotsGate
	cache     *gocache.Cache
}

// Result is one fetched response. Non-2xx statuses are returned, not
// errored: the block detector needs 401/402/403 responses intact.
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
}

// NewFetcher creates a Fetcher from configuration.
func NewFetcher(cfg model.HTTPConfig, cacheCfg model.CacheConfig) *Fetcher {
	transport := &http.Transport{
		Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		limiter:   NewLimiter(cfg.RatePerDomain, cfg.RateBurst),
	}

	if cfg.RespectRobots {
		f.robots = NewRobotsGate(cfg.UserAgent, cfg.Timeout)
	}
	if cacheCfg.Enabled {
		f.cache = gocache.New(cacheCfg.TTL, 2*cacheCfg.TTL)
	}

	return f
}

// userAgentFor returns the client identity for a URL. Social platforms serve
// complete Open Graph metadata to link-preview crawlers but near-empty shells
// to browser agents, so those hosts get a crawler identity.
func (f *Fetcher) userAgentFor(rawURL string) string {
	if urlkit.IsSocial(rawURL) {
		return "facebookexternalhit/1.1 (+pagesift)"
	}
	return f.userAgent
}

// Fetch retrieves the URL within the context deadline.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if f.cache != nil {
		if cached, found := f.cache.Get(cacheKey(rawURL)); found {
			return cached.(*Result), nil
		}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgentFor(rawURL))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result := &Result{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}

	if f.cache != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		f.cache.Set(cacheKey(rawURL), result, gocache.DefaultExpiration)
	}

	return result, nil
}

// FetchJSON fetches a URL and decodes the response into v. Used for the
// archive index lookups in the fallback chain.
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string, v interface{}) error {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", result.StatusCode, rawURL)
	}
	if err := json.Unmarshal(result.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "pagesift:fetch:" + hex.EncodeToString(sum[:])
}

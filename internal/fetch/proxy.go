package fetch

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds the transport proxy selector. With no explicit proxy
// URLs configured the standard environment variables apply. Hosts matching
// an entry in the comma-separated noProxy list connect directly.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	skip := parseNoProxy(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if hostMatches(req.URL.Hostname(), skip) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func parseNoProxy(noProxy string) []string {
	var entries []string
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(entry)), ".")
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// hostMatches reports whether host equals or is a subdomain of any entry.
func hostMatches(host string, entries []string) bool {
	host = strings.ToLower(host)
	for _, entry := range entries {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

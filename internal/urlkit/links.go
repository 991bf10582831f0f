package urlkit

import "fmt"

// ArchiveURLs returns archive-service lookup links for a URL. Computed
// locally; no network calls.
func ArchiveURLs(raw string) []string {
	return []string{
		fmt.Sprintf("https://web.archive.org/web/%s", raw),
		fmt.Sprintf("https://archive.today/newest/%s", raw),
		"https://cachedview.nl/",
	}
}

// BypassURLs returns read-through/bypass links for a URL. Computed locally;
// whether any of them actually clears a paywall is up to the service.
func BypassURLs(raw string) []string {
	return []string{
		fmt.Sprintf("https://12ft.io/%s", raw),
		fmt.Sprintf("https://r.jina.ai/%s", raw),
		fmt.Sprintf("https://webcache.googleusercontent.com/search?q=cache:%s", raw),
	}
}

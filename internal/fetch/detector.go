package fetch

import (
	"fmt"
	"net/http"
	"strings"
)

// paywallKeywords are the fixed textual signals checked when a page comes
// back suspiciously short. Matching is case-insensitive substring.
var paywallKeywords = []string{
	"subscribe",
	"subscription",
	"sign in to continue",
	"log in to continue",
	"create a free account",
	"register to continue",
	"paywall",
	"already a subscriber",
	"unlock this article",
	"access denied",
	"are you a robot",
	"enable javascript and cookies",
}

// Detector classifies extraction results as blocked or paywalled. This is a
// heuristic with accepted false positives (short legitimate pages) and false
// negatives (well-disguised paywalls); callers must not treat it as a
// guarantee.
type Detector struct {
	minWordCount int
}

// NewDetector creates a Detector. minWordCount is the threshold below which
// keyword matching is consulted.
func NewDetector(minWordCount int) *Detector {
	if minWordCount <= 0 {
		minWordCount = 150
	}
	return &Detector{minWordCount: minWordCount}
}

// IsBlocked reports whether a fetch+extract outcome looks blocked, with a
// short reason for the fallback annotation.
func (d *Detector) IsBlocked(statusCode int, text string) (bool, string) {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return true, fmt.Sprintf("http status %d", statusCode)
	}

	// The "blocked" signal is gated on the word-count threshold like the
	// keyword list: an article that merely discusses something being blocked
	// must not trip it.
	lower := strings.ToLower(text)
	if strings.Contains(lower, "blocked") && len(strings.Fields(text)) < d.minWordCount {
		return true, "blocked signal in response"
	}

	if len(strings.Fields(text)) < d.minWordCount {
		for _, keyword := range paywallKeywords {
			if strings.Contains(lower, keyword) {
				return true, "short text with paywall keyword: " + keyword
			}
		}
	}

	return false, ""
}

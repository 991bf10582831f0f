package urlkit

import "strings"

// Platform identifies a known social/media platform whose pages need
// metadata-based extraction instead of generic text cleaning.
type Platform string

const (
	PlatformNone       Platform = ""
	PlatformTwitter    Platform = "twitter"
	PlatformBluesky    Platform = "bluesky"
	PlatformFacebook   Platform = "facebook"
	PlatformInstagram  Platform = "instagram"
	PlatformTikTok     Platform = "tiktok"
	PlatformYouTube    Platform = "youtube"
	PlatformReddit     Platform = "reddit"
	PlatformVimeo      Platform = "vimeo"
	PlatformSoundCloud Platform = "soundcloud"
)

// platformHosts maps host fragments to platforms. Matching is substring on
// the lowercased host, so subdomains (m.facebook.com, old.reddit.com) match.
var platformHosts = []struct {
	fragment string
	platform Platform
}{
	{"x.com", PlatformTwitter},
	{"twitter.com", PlatformTwitter},
	{"bsky.app", PlatformBluesky},
	{"facebook.com", PlatformFacebook},
	{"instagram.com", PlatformInstagram},
	{"tiktok.com", PlatformTikTok},
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
	{"reddit.com", PlatformReddit},
	{"vimeo.com", PlatformVimeo},
	{"soundcloud.com", PlatformSoundCloud},
}

// Classify pattern-matches a URL against known platform domains.
func Classify(raw string) Platform {
	host := Domain(raw)
	if host == "" {
		return PlatformNone
	}
	for _, entry := range platformHosts {
		if host == entry.fragment || strings.HasSuffix(host, "."+entry.fragment) {
			return entry.platform
		}
	}
	return PlatformNone
}

// IsSocial reports whether the URL belongs to a known platform.
func IsSocial(raw string) bool {
	return Classify(raw) != PlatformNone
}

package urlkit

import "testing"

func TestNormalize_StripsFragmentAndSortsQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fragment stripped",
			in:   "https://example.com/article#section-2",
			want: "https://example.com/article",
		},
		{
			name: "query sorted",
			in:   "https://example.com/a?z=1&a=2&m=3",
			want: "https://example.com/a?a=2&m=3&z=1",
		},
		{
			name: "scheme added",
			in:   "example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "host lowercased",
			in:   "https://Example.COM/Page",
			want: "https://example.com/Page",
		},
		{
			name: "trailing slash dropped",
			in:   "https://example.com/news/",
			want: "https://example.com/news",
		},
		{
			name: "root path untouched",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "https://Example.com/path/?b=2&a=1#frag"
	once, err := Normalize(in)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if once != twice {
		t.Errorf("normalization not idempotent: %q != %q", once, twice)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "https://"} {
		if _, err := Normalize(in); err == nil {
			t.Errorf("Normalize(%q) expected error", in)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://x.com/someone/status/123", PlatformTwitter},
		{"https://twitter.com/someone", PlatformTwitter},
		{"https://bsky.app/profile/someone", PlatformBluesky},
		{"https://www.youtube.com/watch?v=abc", PlatformYouTube},
		{"https://youtu.be/abc", PlatformYouTube},
		{"https://m.facebook.com/story", PlatformFacebook},
		{"https://old.reddit.com/r/golang", PlatformReddit},
		{"https://www.nytimes.com/article", PlatformNone},
		{"https://notx.com/page", PlatformNone},
	}

	for _, tt := range tests {
		if got := Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestArchiveAndBypassURLs(t *testing.T) {
	u := "https://example.com/story"
	if n := len(ArchiveURLs(u)); n == 0 {
		t.Error("expected archive URLs")
	}
	if n := len(BypassURLs(u)); n == 0 {
		t.Error("expected bypass URLs")
	}
	// Link targets must be computable without any network access; they only
	// embed the original URL.
	for _, link := range BypassURLs(u) {
		if link == "" {
			t.Error("empty bypass link")
		}
	}
}

func TestDomain(t *testing.T) {
	if got := Domain("https://www.Example.com/a"); got != "example.com" {
		t.Errorf("Domain = %q", got)
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF("https://example.com/paper.PDF") {
		t.Error("expected PDF detection")
	}
	if IsPDF("https://example.com/paper.pdf.html") {
		t.Error("false positive PDF detection")
	}
}

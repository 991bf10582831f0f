package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesift/pagesift/internal/urlkit"
)

// defaultAuthors names the account type when a platform page exposes no
// creator tag.
var defaultAuthors = map[urlkit.Platform]string{
	urlkit.PlatformTwitter:    "Twitter User",
	urlkit.PlatformBluesky:    "Bluesky User",
	urlkit.PlatformFacebook:   "Facebook User",
	urlkit.PlatformInstagram:  "Instagram User",
	urlkit.PlatformTikTok:     "TikTok User",
	urlkit.PlatformYouTube:    "YouTube Channel",
	urlkit.PlatformReddit:     "Reddit User",
	urlkit.PlatformVimeo:      "Vimeo User",
	urlkit.PlatformSoundCloud: "SoundCloud Artist",
}

// Social extracts structured Open-Graph-style metadata from a platform page
// and assembles a synthetic text block from it. Generic text-cleaning of
// these platforms' markup yields near-empty or garbage text, so the metadata
// is the content.
func Social(platform urlkit.Platform, sourceURL string, body []byte, contentType string, maxLinks int) (*Document, error) {
	decoded, err := decode(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{}
	fillMetadata(doc, gq)

	if doc.Author == "" {
		doc.Author = defaultAuthors[platform]
	}
	if doc.PublishDate == "" && platform == urlkit.PlatformYouTube {
		doc.PublishDate = jsonLDDate(gq)
	}

	doc.Text = syntheticText(platform, doc)

	return doc.finalize(), nil
}

// syntheticText assembles a readable block from the metadata fields so the
// downstream analyzers have something to work with.
func syntheticText(platform urlkit.Platform, doc *Document) string {
	var b strings.Builder

	write := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	write("Platform", string(platform))
	write("Title", doc.Title)
	write("Author", doc.Author)
	write("Posted", doc.PublishDate)
	write("Description", doc.Description)
	write("Media", doc.MediaURL)

	return b.String()
}

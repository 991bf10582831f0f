package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// HTML extracts plain text and metadata from an HTML page. A readability
// pass isolates the article body; when that fails or yields near-empty text
// the raw visible-text walk is used instead.
func HTML(sourceURL string, body []byte, contentType string, maxLinks int) (*Document, error) {
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

	parsed, _ := url.Parse(sourceURL)
	if article, err := readability.FromReader(bytes.NewReader(decoded), parsed); err == nil {
		doc.Text = article.TextContent
		if doc.Title == "" {
			doc.Title = article.Title
		}
		if doc.Author == "" {
			doc.Author = article.Byline
		}
	}

	// Readability rejects some layouts outright; fall back to walking the
	// parse tree for visible text.
	if CountWords(doc.Text) < 20 {
		if node, err := html.Parse(bytes.NewReader(decoded)); err == nil {
			doc.Text = visibleText(node)
		}
	}

	doc.Links = collectLinks(gq, parsed, maxLinks)

	return doc.finalize(), nil
}

// decode converts a response body to UTF-8 based on the Content-Type header
// and in-document hints.
func decode(body []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body, nil
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return body, nil
	}
	return buf.Bytes(), nil
}

// fillMetadata resolves title/description/author/date through the ladder:
// Open Graph, then Twitter card, then standard meta tags, then JSON-LD,
// then the <title> element.
func fillMetadata(doc *Document, gq *goquery.Document) {
	doc.Title = firstContent(gq,
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
	)
	if doc.Title == "" {
		doc.Title = strings.TrimSpace(gq.Find("title").First().Text())
	}

	doc.Description = firstContent(gq,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	)

	doc.Author = firstContent(gq,
		`meta[name="author"]`,
		`meta[property="article:author"]`,
		`meta[name="twitter:creator"]`,
	)

	doc.PublishDate = firstContent(gq,
		`meta[name="datePublished"]`,
		`meta[property="article:published_time"]`,
		`meta[property="og:updated_time"]`,
	)
	if doc.PublishDate == "" {
		doc.PublishDate = jsonLDDate(gq)
	}

	doc.MediaURL = firstContent(gq,
		`meta[property="og:image"]`,
		`meta[property="og:video"]`,
	)
}

func firstContent(gq *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := gq.Find(sel).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// jsonLDDate pulls datePublished (or uploadDate, which video platforms use)
// out of ld+json script blocks.
func jsonLDDate(gq *goquery.Document) string {
	var found string
	gq.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		found = ldDateFrom(data)
		return found == ""
	})
	return found
}

func ldDateFrom(data interface{}) string {
	switch v := data.(type) {
	case map[string]interface{}:
		for _, key := range []string{"datePublished", "uploadDate"} {
			if date, ok := v[key].(string); ok && date != "" {
				return date
			}
		}
	case []interface{}:
		for _, entry := range v {
			if date := ldDateFrom(entry); date != "" {
				return date
			}
		}
	}
	return ""
}

// visibleText walks the parse tree collecting text nodes, skipping script,
// style and other non-content elements.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

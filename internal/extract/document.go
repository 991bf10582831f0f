package extract

import (
	"strings"

	"github.com/pagesift/pagesift/internal/model"
)

// Document is the format-independent result of content extraction: plain
// text plus whatever metadata the source exposed.
type Document struct {
	Text        string
	Title       string
	Author      string
	Description string
	PublishDate string
	MediaURL    string
	Links       []model.LinkInfo
	WordCount   int
	IsPDF       bool
	PageCount   int
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func (d *Document) finalize() *Document {
	d.Text = strings.TrimSpace(d.Text)
	d.WordCount = CountWords(d.Text)
	return d
}

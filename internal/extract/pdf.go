package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts plain text from PDF bytes, page by page. Pages whose text
// layer cannot be read are skipped rather than failing the document.
func PDF(body []byte) (*Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc := &Document{IsPDF: true, PageCount: reader.NumPage()}

	var text strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	doc.Text = text.String()
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("pdf has no extractable text layer")
	}

	// Scanned or title-less PDFs carry no metadata worth trusting; the
	// first non-empty line is the best title guess available.
	for _, line := range strings.Split(doc.Text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if len(trimmed) > 120 {
				trimmed = trimmed[:120]
			}
			doc.Title = trimmed
			break
		}
	}

	return doc.finalize(), nil
}

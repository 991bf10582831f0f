package extract

import "strings"

// Plain wraps a text/plain body (read-through proxies return these) as a
// Document. The first line doubles as the title when it looks like one.
func Plain(body []byte) *Document {
	doc := &Document{Text: string(body)}

	lines := strings.SplitN(doc.Text, "\n", 3)
	if len(lines) > 0 {
		first := strings.TrimSpace(strings.TrimPrefix(lines[0], "Title:"))
		if first != "" && len(first) <= 200 {
			doc.Title = first
		}
	}

	return doc.finalize()
}

package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagesift/pagesift/internal/metrics"
)

const summarySystem = "You summarize articles faithfully and concisely. Respond with the summary text only."

// Summary produces a short prose summary of the document. Long PDFs run
// through the chaptered path so no single request exceeds language-model
// input limits. When the service is unavailable the leading text itself
// stands in as the summary.
func (a *Analyzer) Summary(ctx context.Context, title, text string, wordCount int, isPDF bool) string {
	if !a.client.Enabled() {
		return fallbackSummary(text)
	}

	if isPDF && a.limits.PDFChapterWords > 0 && wordCount > a.limits.PDFChapterWords {
		return a.chapteredSummary(ctx, title, text)
	}

	summary, err := a.summarizeOnce(ctx, title, excerpt(text, a.limits.ExcerptChars))
	if err != nil {
		a.logger.Warn("summarization failed, using leading text", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("summary").Inc()
		return fallbackSummary(text)
	}
	return summary
}

func (a *Analyzer) summarizeOnce(ctx context.Context, title, text string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following article in 3-5 sentences. Cover the main assertions, who made them, and any notable numbers. Do not editorialize.

Title: %s

Article text:
%s`, title, text)

	raw, err := a.client.CompleteJSON(ctx, summarySystem, prompt, tempAnalytic)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(string(raw))
	if summary == "" {
		return "", fmt.Errorf("empty summary response")
	}
	return summary, nil
}

// chapteredSummary splits a long document into word-bounded chapters,
// summarizes each, then condenses the chapter summaries into one. A chapter
// that fails to summarize is skipped rather than failing the document.
func (a *Analyzer) chapteredSummary(ctx context.Context, title, text string) string {
	chapters := splitWords(text, a.limits.PDFChapterWords)

	var parts []string
	for i, chapter := range chapters {
		part, err := a.summarizeOnce(ctx, fmt.Sprintf("%s (part %d of %d)", title, i+1, len(chapters)), chapter)
		if err != nil {
			a.logger.Warn("chapter summarization failed, skipping", "chapter", i+1, "error", err)
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		metrics.LLMFailuresTotal.WithLabelValues("summary").Inc()
		return fallbackSummary(text)
	}
	if len(parts) == 1 {
		return parts[0]
	}

	combined, err := a.summarizeOnce(ctx, title, strings.Join(parts, "\n\n"))
	if err != nil {
		a.logger.Warn("summary-of-summaries failed, joining chapter summaries", "error", err)
		return strings.Join(parts, " ")
	}
	return combined
}

// splitWords chops text into segments of at most maxWords words.
func splitWords(text string, maxWords int) []string {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return []string{text}
	}

	var chapters []string
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chapters = append(chapters, strings.Join(words[start:end], " "))
	}
	return chapters
}

// fallbackSummary truncates the leading text to something readable.
func fallbackSummary(text string) string {
	const maxChars = 500
	text = strings.TrimSpace(text)
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

// Package analyze derives structured signal (summary, entities, sentiment,
// topics, keyphrases, claims) from extracted text via the language-model
// service. Every extractor degrades to a documented fallback instead of
// propagating failures: analysis always produces a usable, if partial,
// record.
package analyze

import (
	"log/slog"

	"github.com/pagesift/pagesift/internal/llm"
	"github.com/pagesift/pagesift/internal/model"
)

// Sampling temperatures. Analytically consistent tasks run cold; open-ended
// naming gets room to move.
const (
	tempAnalytic = 0.2
	tempNaming   = 0.5
)

// Analyzer runs the language-model-backed extractors.
type Analyzer struct {
	client *llm.Client
	limits model.LimitsConfig
	logger *slog.Logger
}

// New creates an Analyzer.
func New(client *llm.Client, limits model.LimitsConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{client: client, limits: limits, logger: logger}
}

// excerpt bounds text for prompt embedding.
func excerpt(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

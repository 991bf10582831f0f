package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pagesift/pagesift/internal/metrics"
)

const topicsSystem = "You are a topic classification service. Respond with JSON only, no prose, no code fences."

// Topics identifies the main topics and key phrases of the text. Both lists
// fall back to empty arrays on any failure.
func (a *Analyzer) Topics(ctx context.Context, text string) (topics, keyphrases []string) {
	topics, keyphrases = []string{}, []string{}

	if !a.client.Enabled() {
		return topics, keyphrases
	}

	prompt := fmt.Sprintf(`Identify the topics of the article text below.

Return a JSON object with exactly these keys:
  "topics": array of 3-8 short topic labels, most central first
  "keyphrases": array of 5-15 distinctive phrases taken from the text

Article text:
%s`, excerpt(text, a.limits.ExcerptChars))

	raw, err := a.client.CompleteJSON(ctx, topicsSystem, prompt, tempAnalytic)
	if err != nil {
		a.logger.Warn("topic extraction failed, returning empty lists", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("topics").Inc()
		return topics, keyphrases
	}

	var parsed struct {
		Topics     []string `json:"topics"`
		Keyphrases []string `json:"keyphrases"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		a.logger.Warn("topic response was not valid JSON", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("topics").Inc()
		return topics, keyphrases
	}

	return cleanList(parsed.Topics), cleanList(parsed.Keyphrases)
}

package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pagesift/pagesift/internal/metrics"
	"github.com/pagesift/pagesift/internal/model"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

const entitiesSystem = "You are a named-entity extraction service. Respond with JSON only, no prose, no code fences."

// Entities extracts categorized named entities from the text. Emails are
// always extracted locally by regex, so they survive language-model outages;
// everything else falls back to empty lists on any failure.
func (a *Analyzer) Entities(ctx context.Context, text, author string) *model.Entities {
	entities := &model.Entities{
		People:        []string{},
		Organizations: []string{},
		Locations:     []string{},
		Dates:         []string{},
		Emails:        localEmails(text),
	}

	if !a.client.Enabled() {
		return entities
	}

	prompt := fmt.Sprintf(`Extract named entities from the article text below.

Return a JSON object with exactly these keys, each an array of strings:
  "people", "organizations", "locations", "dates"

Rules:
- Deduplicate entries and use each entity's most complete name.
- Dates may be absolute or relative as written in the text.%s

Article text:
%s`, authorExclusion(author), excerpt(text, a.limits.ExcerptChars))

	raw, err := a.client.CompleteJSON(ctx, entitiesSystem, prompt, tempNaming)
	if err != nil {
		a.logger.Warn("entity extraction failed, returning empty lists", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("entities").Inc()
		return entities
	}

	var parsed struct {
		People        []string `json:"people"`
		Organizations []string `json:"organizations"`
		Locations     []string `json:"locations"`
		Dates         []string `json:"dates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		a.logger.Warn("entity response was not valid JSON", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("entities").Inc()
		return entities
	}

	entities.People = cleanList(parsed.People)
	entities.Organizations = cleanList(parsed.Organizations)
	entities.Locations = cleanList(parsed.Locations)
	entities.Dates = cleanList(parsed.Dates)
	return entities
}

// authorExclusion adds the byline-exclusion instruction when an author is
// known. The model bears enforcement; this is best-effort.
func authorExclusion(author string) string {
	if strings.TrimSpace(author) == "" {
		return ""
	}
	return fmt.Sprintf("\n- Exclude the article's author %q from \"people\" unless the text discusses them as a subject.", author)
}

// localEmails finds addresses in the text directly, deduplicated and sorted.
func localEmails(text string) []string {
	seen := make(map[string]bool)
	emails := []string{}
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			emails = append(emails, m)
		}
	}
	sort.Strings(emails)
	return emails
}

// cleanList trims entries and drops empties, keeping response order.
func cleanList(values []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

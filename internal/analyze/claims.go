package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pagesift/pagesift/internal/model"
)

const claimsSystem = "You are a factual-claim extraction service. Respond with JSON only, no prose, no code fences."

// Claims extracts atomic factual claims from the text. Unlike the other
// extractors this one propagates failure: claim analysis is an explicit
// operation and the caller needs to distinguish "no claims found" from
// "extraction broke". Claim IDs are assigned per run and are not stable
// across re-runs.
func (a *Analyzer) Claims(ctx context.Context, text string) ([]model.Claim, error) {
	if !a.client.Enabled() {
		return nil, fmt.Errorf("claim extraction requires a configured language-model service")
	}

	maxClaims := a.limits.MaxClaims
	if maxClaims <= 0 {
		maxClaims = 15
	}

	prompt := fmt.Sprintf(`Extract 5-%d self-contained factual claims from the article text below.

Rules:
- Each claim must be objective and checkable. Reject speculation, predictions, and opinion.
- Attribute each claim to whoever asserts it (a person, organization, or the article itself).
- Categorize each claim as one of: "statement", "quote", "statistic", "event", "relationship".

Return a JSON object: {"claims": [...]} where each entry has:
  "text": the claim restated as one self-contained sentence
  "category": the category
  "source": who asserts it
  "extraction_confidence": number from 0 to 1
  "supporting_text_snippet": the passage the claim came from

Article text:
%s`, maxClaims, excerpt(text, a.limits.ClaimExcerptChars))

	raw, err := a.client.CompleteJSON(ctx, claimsSystem, prompt, tempAnalytic)
	if err != nil {
		return nil, fmt.Errorf("claim extraction: %w", err)
	}

	var parsed struct {
		Claims []struct {
			Text                  string  `json:"text"`
			Category              string  `json:"category"`
			Source                string  `json:"source"`
			ExtractionConfidence  float64 `json:"extraction_confidence"`
			SupportingTextSnippet string  `json:"supporting_text_snippet"`
		} `json:"claims"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("claim extraction: decode response: %w", err)
	}

	claims := make([]model.Claim, 0, len(parsed.Claims))
	for _, c := range parsed.Claims {
		if c.Text == "" {
			continue
		}
		claims = append(claims, model.Claim{
			ID:                    uuid.NewString(),
			Text:                  c.Text,
			Category:              claimCategory(c.Category),
			Source:                c.Source,
			ExtractionConfidence:  clamp(c.ExtractionConfidence, 0, 1),
			SupportingTextSnippet: c.SupportingTextSnippet,
		})
		if len(claims) == maxClaims {
			break
		}
	}
	return claims, nil
}

// claimCategory maps a response label to a known category, defaulting to
// statement for anything off-menu.
func claimCategory(label string) model.ClaimCategory {
	switch model.ClaimCategory(label) {
	case model.ClaimStatement, model.ClaimQuote, model.ClaimStatistic,
		model.ClaimEvent, model.ClaimRelationship:
		return model.ClaimCategory(label)
	}
	return model.ClaimStatement
}

package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pagesift/pagesift/internal/metrics"
	"github.com/pagesift/pagesift/internal/model"
)

const deceptionSystem = "You are a claim credibility assessment service. Respond with JSON only, no prose, no code fences."

const manualReviewRationale = "manual review required: automated scoring unavailable"

// ScoreClaims scores every claim across the six deception axes and
// aggregates a risk classification. On total scoring failure every claim
// carries explicitly null scores with a manual-review rationale; a synthetic
// default number would be indistinguishable from a genuine mid-scale
// assessment.
func (a *Analyzer) ScoreClaims(ctx context.Context, claims []model.Claim, articleContext string) *model.ClaimAnalysis {
	analysis := &model.ClaimAnalysis{Claims: claims, AnalyzedAt: time.Now().UTC()}
	if len(claims) == 0 {
		return analysis
	}

	scored, summary, err := a.requestScores(ctx, claims, articleContext)
	if err != nil {
		a.logger.Warn("deception scoring failed, marking claims unscored", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("deception").Inc()
		for i := range analysis.Claims {
			analysis.Claims[i].Deception = unscoredAssessment()
		}
		analysis.Summary = "Automated credibility scoring was unavailable for this claim set."
		return analysis
	}

	for i := range analysis.Claims {
		assessment, ok := scored[i]
		if !ok {
			analysis.Claims[i].Deception = unscoredAssessment()
			continue
		}
		analysis.Claims[i].Deception = assessment
	}
	analysis.Summary = summary
	return analysis
}

// requestScores performs the scoring call for the whole claim set at once so
// the model can judge internal consistency across claims.
func (a *Analyzer) requestScores(ctx context.Context, claims []model.Claim, articleContext string) (map[int]*model.DeceptionAssessment, string, error) {
	var list strings.Builder
	for i, c := range claims {
		fmt.Fprintf(&list, "%d. [%s, asserted by %s] %s\n", i, c.Category, orUnknown(c.Source), c.Text)
	}

	prompt := fmt.Sprintf(`Score each numbered claim below on six independent axes, each 0-100 where higher means more trustworthy:
  "internal_consistency": agreement with the other claims and the article
  "source_credibility": credibility of the claim's asserting speaker, NOT the publication
  "evidence_quality": strength of evidence offered for the claim
  "logical_coherence": whether the claim follows logically from its support
  "temporal_consistency": whether dates and sequences hold together
  "specificity": concreteness of names, numbers, places

Return a JSON object:
{
  "claims": [
    {
      "index": <claim number>,
      "methods": {"<axis>": {"score": <0-100>, "rationale": "<one sentence>"}, ...all six axes...},
      "red_flags": ["..."],
      "confidence_assessment": "<one sentence on how confident this assessment is>"
    }
  ],
  "summary": "<2-3 sentences on the overall credibility of the claim set>"
}

Claims:
%s
Article context:
%s`, list.String(), excerpt(articleContext, a.limits.ExcerptChars))

	raw, err := a.client.CompleteJSON(ctx, deceptionSystem, prompt, tempAnalytic)
	if err != nil {
		return nil, "", err
	}

	var parsed struct {
		Claims []struct {
			Index   int `json:"index"`
			Methods map[string]struct {
				Score     *float64 `json:"score"`
				Rationale string   `json:"rationale"`
			} `json:"methods"`
			RedFlags             []string `json:"red_flags"`
			ConfidenceAssessment string   `json:"confidence_assessment"`
		} `json:"claims"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, "", fmt.Errorf("decode scoring response: %w", err)
	}

	scored := make(map[int]*model.DeceptionAssessment, len(parsed.Claims))
	for _, entry := range parsed.Claims {
		assessment := &model.DeceptionAssessment{
			Methods:              make(map[string]model.MethodScore, len(model.MethodNames())),
			RedFlags:             entry.RedFlags,
			ConfidenceAssessment: entry.ConfidenceAssessment,
		}

		sum := 0.0
		complete := true
		for _, name := range model.MethodNames() {
			m, ok := entry.Methods[name]
			if !ok || m.Score == nil {
				assessment.Methods[name] = model.MethodScore{Rationale: manualReviewRationale}
				complete = false
				continue
			}
			score := clamp(*m.Score, 0, 100)
			assessment.Methods[name] = model.MethodScore{Score: &score, Rationale: m.Rationale}
			sum += score
		}

		// Risk is the inverted average mapped back to 0-100; it only exists
		// when all six axes scored.
		if complete {
			risk := (600 - sum) / 6
			assessment.RiskScore = &risk
			assessment.OverallRisk = model.RiskLevelFor(risk)
		}

		scored[entry.Index] = assessment
	}
	return scored, parsed.Summary, nil
}

// unscoredAssessment is the explicit null state for a claim that could not
// be scored.
func unscoredAssessment() *model.DeceptionAssessment {
	methods := make(map[string]model.MethodScore, len(model.MethodNames()))
	for _, name := range model.MethodNames() {
		methods[name] = model.MethodScore{Rationale: manualReviewRationale}
	}
	return &model.DeceptionAssessment{
		Methods:              methods,
		ConfidenceAssessment: manualReviewRationale,
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

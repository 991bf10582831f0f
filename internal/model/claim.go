package model

import "time"

// ClaimCategory classifies the nature of an extracted claim.
type ClaimCategory string

const (
	ClaimStatement    ClaimCategory = "statement"
	ClaimQuote        ClaimCategory = "quote"
	ClaimStatistic    ClaimCategory = "statistic"
	ClaimEvent        ClaimCategory = "event"
	ClaimRelationship ClaimCategory = "relationship"
)

// Claim is one atomic factual assertion extracted from the text. Claims are
// derived once per run and never mutated; a re-run replaces the whole set.
type Claim struct {
	ID                    string               `json:"id"`
	Text                  string               `json:"text"`
	Category              ClaimCategory        `json:"category"`
	Source                string               `json:"source,omitempty"`
	ExtractionConfidence  float64              `json:"extraction_confidence"`
	SupportingTextSnippet string               `json:"supporting_text_snippet,omitempty"`
	Deception             *DeceptionAssessment `json:"deception,omitempty"`
}

// Deception scoring axis names, in the order they are prompted and reported.
const (
	MethodInternalConsistency = "internal_consistency"
	MethodSourceCredibility   = "source_credibility"
	MethodEvidenceQuality     = "evidence_quality"
	MethodLogicalCoherence    = "logical_coherence"
	MethodTemporalConsistency = "temporal_consistency"
	MethodSpecificity         = "specificity"
)

// MethodNames lists the six deception axes in canonical order.
func MethodNames() []string {
	return []string{
		MethodInternalConsistency,
		MethodSourceCredibility,
		MethodEvidenceQuality,
		MethodLogicalCoherence,
		MethodTemporalConsistency,
		MethodSpecificity,
	}
}

// MethodScore is one axis result. Score is nil when scoring failed: an
// absent score must stay distinguishable from a genuine mid-scale one.
type MethodScore struct {
	Score     *float64 `json:"score"` // 0-100, nil when unscored
	Rationale string   `json:"rationale,omitempty"`
}

// RiskLevel bands the aggregated risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"    // risk < 30
	RiskMedium RiskLevel = "medium" // 30 <= risk <= 60
	RiskHigh   RiskLevel = "high"   // risk > 60
	RiskNone   RiskLevel = ""       // unscored
)

// DeceptionAssessment aggregates the six axis scores for one claim.
// RiskScore = (600 - sum of axis scores) / 6, so higher = riskier.
type DeceptionAssessment struct {
	Methods              map[string]MethodScore `json:"methods"`
	RiskScore            *float64               `json:"risk_score"` // nil when unscored
	OverallRisk          RiskLevel              `json:"overall_risk,omitempty"`
	RedFlags             []string               `json:"red_flags,omitempty"`
	ConfidenceAssessment string                 `json:"confidence_assessment,omitempty"`
}

// ClaimAnalysis is the persisted claim set plus its summary.
type ClaimAnalysis struct {
	Claims     []Claim   `json:"claims"`
	Summary    string    `json:"summary,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// RiskLevelFor bands a risk score per the documented thresholds.
func RiskLevelFor(risk float64) RiskLevel {
	switch {
	case risk < 30:
		return RiskLow
	case risk <= 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

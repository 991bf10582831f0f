package model

import "time"

// ProcessingMode selects how much derived signal an analysis computes.
type ProcessingMode string

const (
	ModeQuick  ProcessingMode = "quick"  // acquisition + summary + phrases
	ModeNormal ProcessingMode = "normal" // quick + entities/sentiment/keyphrases/topics
	ModeFull   ProcessingMode = "full"   // normal + full text retained via overflow chunks
)

// AnalysisRecord is the unit of persisted work: one canonical record per
// distinct extracted-text digest.
type AnalysisRecord struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	URLNormalized string `json:"url_normalized"`
	ContentHash   string `json:"content_hash"`

	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	PublishDate    string `json:"publish_date,omitempty"`
	Domain         string `json:"domain,omitempty"`
	IsSocialMedia  bool   `json:"is_social_media"`
	SocialPlatform string `json:"social_platform,omitempty"`
	ExtractedText  string `json:"extracted_text,omitempty"`
	WordCount      int    `json:"word_count"`

	Summary       string         `json:"summary,omitempty"`
	WordFrequency map[string]int `json:"word_frequency,omitempty"`
	TopPhrases    []Phrase       `json:"top_phrases,omitempty"`
	Entities      *Entities      `json:"entities,omitempty"`
	Sentiment     *Sentiment     `json:"sentiment,omitempty"`
	Keyphrases    []string       `json:"keyphrases,omitempty"`
	Topics        []string       `json:"topics,omitempty"`
	ClaimAnalysis *ClaimAnalysis `json:"claim_analysis,omitempty"`
	Links         []LinkInfo     `json:"links,omitempty"`

	ArchiveURLs []string `json:"archive_urls,omitempty"`
	BypassURLs  []string `json:"bypass_urls,omitempty"`

	SaveLink bool     `json:"save_link,omitempty"`
	LinkNote string   `json:"link_note,omitempty"`
	LinkTags []string `json:"link_tags,omitempty"`

	ShareToken string `json:"share_token,omitempty"`
	IsPublic   bool   `json:"is_public"`

	ProcessingMode       ProcessingMode `json:"processing_mode"`
	ProcessingDurationMs int64          `json:"processing_duration_ms"`
	FallbackSource       string         `json:"fallback_source,omitempty"`
	FallbackAttempts     []string       `json:"fallback_attempts,omitempty"`
	AccessCount          int            `json:"access_count"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Phrase is one ranked entry in the top-phrases list. Percent is relative to
// the top-ranked phrase's count (top = 100).
type Phrase struct {
	Text    string  `json:"text"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Entities holds categorized named-entity lists. Emails are extracted
// locally by regex and survive language-model outages.
type Entities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
	Emails        []string `json:"emails"`
}

// Sentiment is the overall sentiment assessment for the extracted text.
type Sentiment struct {
	Overall       string         `json:"overall"` // positive, negative, neutral, mixed
	Score         float64        `json:"score"`   // -1..1
	Confidence    float64        `json:"confidence"`
	Emotions      EmotionVector  `json:"emotions"`
	FlaggedClaims []string       `json:"flagged_claims,omitempty"`
	Insights      []string       `json:"insights,omitempty"`
}

// EmotionVector scores individual emotions 0..1.
type EmotionVector struct {
	Joy      float64 `json:"joy"`
	Sadness  float64 `json:"sadness"`
	Anger    float64 `json:"anger"`
	Fear     float64 `json:"fear"`
	Surprise float64 `json:"surprise"`
}

// LinkInfo describes one outbound link found during HTML cleaning.
// Best-effort metadata for link auditing; never validated over the network.
type LinkInfo struct {
	URL                  string   `json:"url"`
	AnchorTexts          []string `json:"anchor_texts,omitempty"`
	OccurrenceCount      int      `json:"occurrence_count"`
	Domain               string   `json:"domain"`
	IsExternal           bool     `json:"is_external"`
	FirstOccurrenceIndex int      `json:"first_occurrence_index"`
}

// DeduplicationEntry maps a content digest to its canonical record.
type DeduplicationEntry struct {
	ContentHash      string    `json:"content_hash"`
	CanonicalID      string    `json:"canonical_id"`
	DuplicateCount   int       `json:"duplicate_count"`
	TotalAccessCount int       `json:"total_access_count"`
	FirstAnalyzedAt  time.Time `json:"first_analyzed_at"`
	LastAccessedAt   time.Time `json:"last_accessed_at"`
}

// Component names used by the status endpoint.
const (
	ComponentSummary       = "summary"
	ComponentWordFrequency = "wordFrequency"
	ComponentEntities      = "entities"
	ComponentSentiment     = "sentiment"
	ComponentKeyphrases    = "keyphrases"
	ComponentTopics        = "topics"
	ComponentClaims        = "claims"
)

// ComponentStatus reports per-component completion for progressive rendering.
type ComponentStatus struct {
	Components map[string]string `json:"components"` // pending | complete
	Progress   int               `json:"progress"`   // 0-100
}

// StatusFor derives the completion map from whichever fields exist on the
// record. Components the record's mode never computes are reported but kept
// out of the progress denominator: absent claims (an explicitly triggered
// operation) and, in quick mode, the deep extractors.
func StatusFor(rec *AnalysisRecord) ComponentStatus {
	done := map[string]bool{
		ComponentSummary:       rec.Summary != "",
		ComponentWordFrequency: len(rec.WordFrequency) > 0,
		ComponentEntities:      rec.Entities != nil,
		ComponentSentiment:     rec.Sentiment != nil,
		ComponentKeyphrases:    rec.Keyphrases != nil,
		ComponentTopics:        rec.Topics != nil,
		ComponentClaims:        rec.ClaimAnalysis != nil,
	}
	deep := map[string]bool{
		ComponentEntities:   true,
		ComponentSentiment:  true,
		ComponentKeyphrases: true,
		ComponentTopics:     true,
	}

	components := make(map[string]string, len(done))
	complete := 0
	counted := 0
	for name, ok := range done {
		if ok {
			components[name] = "complete"
		} else {
			components[name] = "pending"
		}
		if !ok {
			if name == ComponentClaims {
				continue
			}
			if deep[name] && rec.ProcessingMode == ModeQuick {
				continue
			}
		}
		counted++
		if ok {
			complete++
		}
	}

	progress := 0
	if counted > 0 {
		progress = complete * 100 / counted
	}

	return ComponentStatus{Components: components, Progress: progress}
}

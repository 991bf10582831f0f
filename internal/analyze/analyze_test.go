package analyze

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pagesift/pagesift/internal/llm"
	"github.com/pagesift/pagesift/internal/metrics"
	"github.com/pagesift/pagesift/internal/model"
)

// fakeLLM serves a canned chat completion body for every request.
func fakeLLM(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
}

func analyzerFor(srv *httptest.Server) *Analyzer {
	cfg := model.LLMConfig{Model: "gpt-4o-mini", MaxTokens: 500}
	if srv != nil {
		cfg.APIKey = "test"
		cfg.BaseURL = srv.URL + "/v1"
	}
	limits := model.DefaultConfig().Limits
	return New(llm.New(cfg), limits, slog.New(slog.NewTextHandler(testWriter{}, nil)))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestEntitiesWithoutServiceKeepsEmails(t *testing.T) {
	a := analyzerFor(nil)
	text := "Contact press@example.org or Press@Example.org for details."

	entities := a.Entities(context.Background(), text, "")
	if entities == nil {
		t.Fatal("nil entities")
	}
	if len(entities.People) != 0 || len(entities.Organizations) != 0 {
		t.Errorf("expected empty lists, got %+v", entities)
	}
	if len(entities.Emails) != 1 || entities.Emails[0] != "press@example.org" {
		t.Errorf("emails = %v, want [press@example.org]", entities.Emails)
	}
}

func TestEntitiesParsesResponse(t *testing.T) {
	srv := fakeLLM(t, `{"people": ["Ada Lovelace", " Ada Lovelace "], "organizations": ["Royal Society"], "locations": ["London"], "dates": ["1843"]}`)
	defer srv.Close()

	entities := analyzerFor(srv).Entities(context.Background(), "some text", "Reporter Name")
	if len(entities.People) != 1 || entities.People[0] != "Ada Lovelace" {
		t.Errorf("people = %v, want deduplicated [Ada Lovelace]", entities.People)
	}
	if len(entities.Organizations) != 1 || len(entities.Locations) != 1 || len(entities.Dates) != 1 {
		t.Errorf("entities = %+v", entities)
	}
}

func TestSentimentFallbackOnMalformedResponse(t *testing.T) {
	srv := fakeLLM(t, "I cannot analyze this.")
	defer srv.Close()

	s := analyzerFor(srv).Sentiment(context.Background(), "some text")
	if s.Overall != "neutral" || s.Score != 0 {
		t.Errorf("sentiment = %+v, want neutral fallback", s)
	}
	if len(s.Insights) != 1 || s.Insights[0] != "analysis unavailable" {
		t.Errorf("insights = %v, want [analysis unavailable]", s.Insights)
	}
}

func TestExtractorFailuresAreCounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	a := analyzerFor(srv)

	counters := map[string]func(){
		"entities":  func() { a.Entities(context.Background(), "text", "") },
		"sentiment": func() { a.Sentiment(context.Background(), "text") },
		"topics":    func() { a.Topics(context.Background(), "text") },
		"summary":   func() { a.Summary(context.Background(), "Title", "text", 1, false) },
	}
	for name, run := range counters {
		before := testutil.ToFloat64(metrics.LLMFailuresTotal.WithLabelValues(name))
		run()
		after := testutil.ToFloat64(metrics.LLMFailuresTotal.WithLabelValues(name))
		if after != before+1 {
			t.Errorf("%s failures counter = %v, want %v", name, after, before+1)
		}
	}
}

func TestSentimentParsesAndClamps(t *testing.T) {
	srv := fakeLLM(t, `{"overall": "negative", "score": -3, "confidence": 0.8, "emotions": {"anger": 1.5}, "insights": ["combative framing"]}`)
	defer srv.Close()

	s := analyzerFor(srv).Sentiment(context.Background(), "some text")
	if s.Overall != "negative" {
		t.Errorf("overall = %q", s.Overall)
	}
	if s.Score != -1 {
		t.Errorf("score = %v, want clamped -1", s.Score)
	}
	if s.Emotions.Anger != 1 {
		t.Errorf("anger = %v, want clamped 1", s.Emotions.Anger)
	}
}

func TestTopicsFallback(t *testing.T) {
	topics, keyphrases := analyzerFor(nil).Topics(context.Background(), "text")
	if topics == nil || keyphrases == nil || len(topics) != 0 || len(keyphrases) != 0 {
		t.Errorf("topics = %v, keyphrases = %v, want empty non-nil", topics, keyphrases)
	}
}

func TestSummaryFallbackUsesLeadingText(t *testing.T) {
	long := strings.Repeat("word ", 200)
	summary := analyzerFor(nil).Summary(context.Background(), "Title", long, 200, false)
	if summary == "" || len(summary) > 510 {
		t.Errorf("fallback summary length %d", len(summary))
	}
}

func TestClaimsParsesAndCaps(t *testing.T) {
	payload := `{"claims": [
		{"text": "The dam was completed in 1936.", "category": "event", "source": "the article", "extraction_confidence": 0.9, "supporting_text_snippet": "completed in 1936"},
		{"text": "Output rose 40 percent.", "category": "statistic", "source": "Agency report", "extraction_confidence": 2.0},
		{"text": "", "category": "statement"},
		{"text": "Weird category claim.", "category": "prophecy", "source": "someone", "extraction_confidence": 0.5}
	]}`
	srv := fakeLLM(t, payload)
	defer srv.Close()

	claims, err := analyzerFor(srv).Claims(context.Background(), "article text")
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if len(claims) != 3 {
		t.Fatalf("len = %d, want 3 (empty text dropped)", len(claims))
	}
	if claims[0].ID == "" || claims[0].ID == claims[1].ID {
		t.Error("claims must carry distinct per-run IDs")
	}
	if claims[0].Category != model.ClaimEvent {
		t.Errorf("category = %q", claims[0].Category)
	}
	if claims[1].ExtractionConfidence != 1 {
		t.Errorf("confidence = %v, want clamped 1", claims[1].ExtractionConfidence)
	}
	if claims[2].Category != model.ClaimStatement {
		t.Errorf("off-menu category = %q, want statement", claims[2].Category)
	}
}

func TestClaimsRequiresService(t *testing.T) {
	if _, err := analyzerFor(nil).Claims(context.Background(), "text"); err == nil {
		t.Error("Claims without service should error")
	}
}

func TestScoreClaimsAggregatesRisk(t *testing.T) {
	methods := map[string]any{}
	for _, name := range model.MethodNames() {
		methods[name] = map[string]any{"score": 90, "rationale": "consistent"}
	}
	body, _ := json.Marshal(map[string]any{
		"claims": []any{map[string]any{
			"index":                 0,
			"methods":               methods,
			"red_flags":             []string{},
			"confidence_assessment": "high confidence",
		}},
		"summary": "Credible claim set.",
	})
	srv := fakeLLM(t, string(body))
	defer srv.Close()

	claims := []model.Claim{{ID: "c1", Text: "The dam was completed in 1936.", Category: model.ClaimEvent}}
	analysis := analyzerFor(srv).ScoreClaims(context.Background(), claims, "article context")

	d := analysis.Claims[0].Deception
	if d == nil || d.RiskScore == nil {
		t.Fatalf("deception = %+v, want scored", d)
	}
	// (600 - 6*90) / 6 = 10
	if *d.RiskScore != 10 {
		t.Errorf("risk = %v, want 10", *d.RiskScore)
	}
	if d.OverallRisk != model.RiskLow {
		t.Errorf("overall = %q, want low", d.OverallRisk)
	}
	if analysis.Summary != "Credible claim set." {
		t.Errorf("summary = %q", analysis.Summary)
	}
}

func TestScoreClaimsFailureLeavesNullScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	claims := []model.Claim{
		{ID: "c1", Text: "First claim."},
		{ID: "c2", Text: "Second claim."},
	}
	analysis := analyzerFor(srv).ScoreClaims(context.Background(), claims, "context")

	for _, c := range analysis.Claims {
		if c.Deception == nil {
			t.Fatalf("claim %s has no assessment", c.ID)
		}
		if c.Deception.RiskScore != nil {
			t.Errorf("claim %s risk = %v, want nil", c.ID, *c.Deception.RiskScore)
		}
		for name, m := range c.Deception.Methods {
			if m.Score != nil {
				t.Errorf("claim %s axis %s score = %v, want nil", c.ID, name, *m.Score)
			}
			if !strings.Contains(m.Rationale, "manual review") {
				t.Errorf("axis %s rationale = %q, want manual review note", name, m.Rationale)
			}
		}
	}
}

func TestRiskBands(t *testing.T) {
	cases := []struct {
		risk float64
		want model.RiskLevel
	}{
		{0, model.RiskLow}, {29.9, model.RiskLow},
		{30, model.RiskMedium}, {60, model.RiskMedium},
		{60.1, model.RiskHigh}, {100, model.RiskHigh},
	}
	for _, c := range cases {
		if got := model.RiskLevelFor(c.risk); got != c.want {
			t.Errorf("RiskLevelFor(%v) = %q, want %q", c.risk, got, c.want)
		}
	}
}

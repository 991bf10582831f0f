// Package pipeline wires acquisition, deduplication, phrase analysis, and
// the language-model extractors into the end-to-end analysis flow.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pagesift/pagesift/internal/analyze"
	"github.com/pagesift/pagesift/internal/fetch"
	"github.com/pagesift/pagesift/internal/metrics"
	"github.com/pagesift/pagesift/internal/model"
	"github.com/pagesift/pagesift/internal/phrase"
	"github.com/pagesift/pagesift/internal/store"
	"github.com/pagesift/pagesift/internal/urlkit"
)

// topPhraseLimit bounds the ranked phrase list on a record.
const topPhraseLimit = 10

// Acquirer retrieves readable content for a URL.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (*fetch.AcquireResult, error)
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	SaveRecord(ctx context.Context, rec *model.AnalysisRecord) error
	GetRecord(ctx context.Context, id string) (*model.AnalysisRecord, error)
	Reserve(ctx context.Context, contentHash, canonicalID string) error
	Lookup(ctx context.Context, contentHash string) (string, error)
	RecordHit(ctx context.Context, contentHash string) error
	IncrementAccess(ctx context.Context, id string) error
	SaveChunks(ctx context.Context, analysisID string, chunks []string) error
	FullText(ctx context.Context, analysisID, head string) (string, error)
	UpdateClaimAnalysis(ctx context.Context, id string, analysis *model.ClaimAnalysis) error
}

// Request is one analysis job.
type Request struct {
	URL      string               `json:"url"`
	Mode     model.ProcessingMode `json:"mode"`
	SaveLink bool                 `json:"save_link"`
	LinkNote string               `json:"link_note"`
	LinkTags []string             `json:"link_tags"`
}

// Pipeline runs the full analysis flow.
type Pipeline struct {
	acquirer Acquirer
	analyzer *analyze.Analyzer
	store    Store
	limits   model.LimitsConfig
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a Pipeline.
func New(acquirer Acquirer, analyzer *analyze.Analyzer, st Store, limits model.LimitsConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		acquirer: acquirer,
		analyzer: analyzer,
		store:    st,
		limits:   limits,
		logger:   logger,
		tracer:   otel.Tracer("pagesift/pipeline"),
	}
}

// Analyze runs the complete flow for one URL: normalize, classify, acquire,
// hash, deduplicate, derive signal, persist. A content-hash hit returns the
// existing canonical record instead of creating a new one.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*model.AnalysisRecord, error) {
	started := time.Now()
	mode := req.Mode
	if mode == "" {
		mode = model.ModeNormal
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.analyze",
		trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	normalized, err := urlkit.Normalize(req.URL)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(mode), "invalid_url").Inc()
		return nil, fmt.Errorf("normalize url: %w", err)
	}
	platform := urlkit.Classify(normalized)

	result, err := p.acquire(ctx, normalized)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(mode), "acquisition_failed").Inc()
		return nil, err
	}

	doc := result.Doc
	hash := contentHash(doc.Text)

	if existing, hit := p.dedupShortCircuit(ctx, hash); hit {
		metrics.DedupHitsTotal.Inc()
		metrics.AnalysesTotal.WithLabelValues(string(mode), "dedup_hit").Inc()
		return existing, nil
	}

	rec := &model.AnalysisRecord{
		ID:             uuid.NewString(),
		URL:            req.URL,
		URLNormalized:  normalized,
		ContentHash:    hash,
		Title:          doc.Title,
		Author:         doc.Author,
		PublishDate:    doc.PublishDate,
		Domain:         urlkit.Domain(normalized),
		IsSocialMedia:  platform != urlkit.PlatformNone,
		SocialPlatform: string(platform),
		WordCount:      doc.WordCount,
		Links:          doc.Links,
		ArchiveURLs:    urlkit.ArchiveURLs(normalized),
		BypassURLs:     urlkit.BypassURLs(normalized),
		SaveLink:       req.SaveLink,
		LinkNote:       req.LinkNote,
		LinkTags:       req.LinkTags,
		ProcessingMode: mode,
		FallbackSource: result.Source,
	}
	if len(result.Attempts) > 1 {
		rec.FallbackAttempts = result.Attempts
	}

	// Text past the row cap survives only in full mode, as overflow chunks.
	head, chunks := store.SplitChunks(doc.Text, p.limits.MaxTextChars, p.limits.ChunkChars)
	rec.ExtractedText = head

	if err := p.reserve(ctx, hash, rec); err != nil {
		// Lost the race to a concurrent writer analyzing identical content.
		if existing, hit := p.dedupShortCircuit(ctx, hash); hit {
			metrics.DedupHitsTotal.Inc()
			metrics.AnalysesTotal.WithLabelValues(string(mode), "dedup_hit").Inc()
			return existing, nil
		}
		metrics.AnalysesTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, err
	}

	p.derivePhrases(ctx, rec, doc.Text)

	// Persist the shell before the slow extractors so status polling can
	// render progressively.
	if err := p.store.SaveRecord(ctx, rec); err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, fmt.Errorf("persist record: %w", err)
	}
	if mode == model.ModeFull && len(chunks) > 0 {
		if err := p.store.SaveChunks(ctx, rec.ID, chunks); err != nil {
			p.logger.Warn("saving overflow chunks failed", "id", rec.ID, "error", err)
		}
	}

	p.runExtractors(ctx, rec, doc.Text, mode, doc.IsPDF)

	rec.ProcessingDurationMs = time.Since(started).Milliseconds()
	if err := p.store.SaveRecord(ctx, rec); err != nil {
		metrics.AnalysesTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, fmt.Errorf("persist record: %w", err)
	}

	metrics.AnalysesTotal.WithLabelValues(string(mode), "ok").Inc()
	metrics.AnalysisDuration.WithLabelValues(string(mode)).Observe(time.Since(started).Seconds())
	p.logger.Info("analysis complete",
		"id", rec.ID, "url", normalized, "mode", mode,
		"source", rec.FallbackSource, "words", rec.WordCount,
		"duration_ms", rec.ProcessingDurationMs)
	return rec, nil
}

// AnalyzeClaims (re)computes the claim set for an existing record and
// persists it idempotently; it never creates a new record.
func (p *Pipeline) AnalyzeClaims(ctx context.Context, id string) (*model.ClaimAnalysis, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.claims")
	defer span.End()

	rec, err := p.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	text, err := p.store.FullText(ctx, rec.ID, rec.ExtractedText)
	if err != nil {
		p.logger.Warn("loading full text failed, using row head", "id", id, "error", err)
		text = rec.ExtractedText
	}

	claims, err := p.analyzer.Claims(ctx, text)
	if err != nil {
		metrics.LLMFailuresTotal.WithLabelValues("claims").Inc()
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	analysis := p.analyzer.ScoreClaims(ctx, claims, text)
	if err := p.store.UpdateClaimAnalysis(ctx, id, analysis); err != nil {
		return nil, fmt.Errorf("persist claim analysis: %w", err)
	}
	return analysis, nil
}

func (p *Pipeline) acquire(ctx context.Context, normalized string) (*fetch.AcquireResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.acquire")
	defer span.End()

	result, err := p.acquirer.Acquire(ctx, normalized)
	if err != nil {
		return nil, err
	}
	for _, source := range result.Attempts {
		outcome := "blocked"
		if source == result.Source && !result.Blocked {
			outcome = "ok"
		}
		metrics.FallbackAttemptsTotal.WithLabelValues(source, outcome).Inc()
	}
	return result, nil
}

// dedupShortCircuit returns the canonical record for a hash if one exists,
// bumping its counters.
func (p *Pipeline) dedupShortCircuit(ctx context.Context, hash string) (*model.AnalysisRecord, bool) {
	canonicalID, err := p.store.Lookup(ctx, hash)
	if err != nil {
		return nil, false
	}
	rec, err := p.store.GetRecord(ctx, canonicalID)
	if err != nil {
		p.logger.Warn("dedup entry points at missing record", "id", canonicalID, "error", err)
		return nil, false
	}
	if err := p.store.RecordHit(ctx, hash); err != nil {
		p.logger.Warn("recording dedup hit failed", "hash", hash, "error", err)
	}
	if err := p.store.IncrementAccess(ctx, rec.ID); err != nil {
		p.logger.Warn("incrementing access count failed", "id", rec.ID, "error", err)
	}
	rec.AccessCount++
	p.logger.Info("content already analyzed, returning canonical record", "id", rec.ID)
	return rec, true
}

func (p *Pipeline) reserve(ctx context.Context, hash string, rec *model.AnalysisRecord) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.reserve")
	defer span.End()
	return p.store.Reserve(ctx, hash, rec.ID)
}

func (p *Pipeline) derivePhrases(ctx context.Context, rec *model.AnalysisRecord, text string) {
	_, span := p.tracer.Start(ctx, "pipeline.phrases")
	defer span.End()

	freq := phrase.Frequencies(text)
	rec.WordFrequency = phrase.Cap(freq, p.limits.MaxFrequencyTerms)

	ranked := phrase.Top(freq, topPhraseLimit)
	rec.TopPhrases = make([]model.Phrase, len(ranked))
	for i, r := range ranked {
		rec.TopPhrases[i] = model.Phrase{Text: r.Text, Count: r.Count, Percent: r.Percent}
	}
}

// runExtractors fills the language-model-derived fields. Quick mode stops
// at the summary; normal and full add entities, sentiment, keyphrases, and
// topics in parallel. Claims run only through AnalyzeClaims.
func (p *Pipeline) runExtractors(ctx context.Context, rec *model.AnalysisRecord, text string, mode model.ProcessingMode, isPDF bool) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extractors")
	defer span.End()

	rec.Summary = p.analyzer.Summary(ctx, rec.Title, text, rec.WordCount, isPDF)
	if mode == model.ModeQuick {
		return
	}

	analyze.RunParallel(ctx,
		func(ctx context.Context) {
			rec.Entities = p.analyzer.Entities(ctx, text, rec.Author)
		},
		func(ctx context.Context) {
			rec.Sentiment = p.analyzer.Sentiment(ctx, text)
		},
		func(ctx context.Context) {
			rec.Topics, rec.Keyphrases = p.analyzer.Topics(ctx, text)
		},
	)
}

// contentHash digests extracted text for deduplication.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

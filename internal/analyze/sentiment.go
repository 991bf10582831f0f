package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pagesift/pagesift/internal/metrics"
	"github.com/pagesift/pagesift/internal/model"
)

const sentimentSystem = "You are a sentiment analysis service. Respond with JSON only, no prose, no code fences."

// neutralSentiment is the documented fallback when the language-model
// service is unavailable or returns garbage.
func neutralSentiment() *model.Sentiment {
	return &model.Sentiment{
		Overall:    "neutral",
		Score:      0,
		Confidence: 0,
		Emotions:   model.EmotionVector{},
		Insights:   []string{"analysis unavailable"},
	}
}

// Sentiment assesses overall sentiment, emotion intensities, and notable
// claims in the text. Falls back to a neutral assessment on any failure.
func (a *Analyzer) Sentiment(ctx context.Context, text string) *model.Sentiment {
	if !a.client.Enabled() {
		return neutralSentiment()
	}

	prompt := fmt.Sprintf(`Analyze the sentiment of the article text below.

Return a JSON object with exactly these keys:
  "overall": one of "positive", "negative", "neutral", "mixed"
  "score": number from -1 (most negative) to 1 (most positive)
  "confidence": number from 0 to 1
  "emotions": object with numeric 0-1 keys "joy", "sadness", "anger", "fear", "surprise"
  "flagged_claims": array of strings quoting emotionally charged or loaded assertions
  "insights": array of short observations about tone and framing

Article text:
%s`, excerpt(text, a.limits.ExcerptChars))

	raw, err := a.client.CompleteJSON(ctx, sentimentSystem, prompt, tempAnalytic)
	if err != nil {
		a.logger.Warn("sentiment analysis failed, returning neutral fallback", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("sentiment").Inc()
		return neutralSentiment()
	}

	var parsed model.Sentiment
	if err := json.Unmarshal(raw, &parsed); err != nil {
		a.logger.Warn("sentiment response was not valid JSON", "error", err)
		metrics.LLMFailuresTotal.WithLabelValues("sentiment").Inc()
		return neutralSentiment()
	}

	switch parsed.Overall {
	case "positive", "negative", "neutral", "mixed":
	default:
		metrics.LLMFailuresTotal.WithLabelValues("sentiment").Inc()
		return neutralSentiment()
	}
	parsed.Score = clamp(parsed.Score, -1, 1)
	parsed.Confidence = clamp(parsed.Confidence, 0, 1)
	parsed.Emotions = model.EmotionVector{
		Joy:      clamp(parsed.Emotions.Joy, 0, 1),
		Sadness:  clamp(parsed.Emotions.Sadness, 0, 1),
		Anger:    clamp(parsed.Emotions.Anger, 0, 1),
		Fear:     clamp(parsed.Emotions.Fear, 0, 1),
		Surprise: clamp(parsed.Emotions.Surprise, 0, 1),
	}
	return &parsed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagesift/pagesift/internal/analyze"
	"github.com/pagesift/pagesift/internal/cache"
	"github.com/pagesift/pagesift/internal/fetch"
	"github.com/pagesift/pagesift/internal/llm"
	"github.com/pagesift/pagesift/internal/model"
	"github.com/pagesift/pagesift/internal/pipeline"
	"github.com/pagesift/pagesift/internal/store"
)

var (
	analyzeMode   string
	analyzeClaims bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a single URL and print the record as JSON",
	Long: `Run the full analysis pipeline for one URL without a database and
print the resulting record to stdout.

Modes:
  quick   acquisition, summary, and phrase frequencies
  normal  quick plus entities, sentiment, keyphrases, topics
  full    normal plus complete text retention`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mode := model.ProcessingMode(analyzeMode)
		switch mode {
		case model.ModeQuick, model.ModeNormal, model.ModeFull:
		default:
			return fmt.Errorf("unknown mode %q", analyzeMode)
		}
		logger := newLogger()

		st := store.NewMemory()
		p := buildPipeline(cfg, st, logger)

		rec, err := p.Analyze(cmd.Context(), pipeline.Request{URL: args[0], Mode: mode})
		if err != nil {
			return err
		}

		if analyzeClaims {
			if _, err := p.AnalyzeClaims(cmd.Context(), rec.ID); err != nil {
				return fmt.Errorf("claim analysis: %w", err)
			}
			if rec, err = st.GetRecord(cmd.Context(), rec.ID); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// buildPipeline assembles the acquisition and analysis stack from config.
func buildPipeline(cfg *model.Config, st pipeline.Store, logger *slog.Logger) *pipeline.Pipeline {
	fetcher := fetch.NewFetcher(cfg.HTTP, cfg.Cache)
	detector := fetch.NewDetector(cfg.Fallback.MinWordCount)
	orchestrator := fetch.NewOrchestrator(fetcher, detector, cfg.Fallback.AttemptTimeout, cfg.Limits.MaxLinks, logger)

	client := llm.New(cfg.LLM)
	if cfg.LLM.CacheDir != "" {
		client = client.WithCache(cache.NewLayered(cfg.LLM.CacheTTL, cfg.LLM.CacheDir, cfg.LLM.CacheTTL), cfg.LLM.CacheTTL)
	}
	analyzer := analyze.New(client, cfg.Limits, logger)
	return pipeline.New(orchestrator, analyzer, st, cfg.Limits, logger)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "normal", "processing mode: quick, normal, or full")
	analyzeCmd.Flags().BoolVar(&analyzeClaims, "claims", false, "also run claim extraction and deception scoring")
	rootCmd.AddCommand(analyzeCmd)
}

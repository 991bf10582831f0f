// Package api serves the analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pagesift/pagesift/internal/metrics"
	"github.com/pagesift/pagesift/internal/model"
	"github.com/pagesift/pagesift/internal/pipeline"
)

// Analyzer is the pipeline surface the server drives.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*model.AnalysisRecord, error)
	AnalyzeClaims(ctx context.Context, id string) (*model.ClaimAnalysis, error)
}

// RecordStore is the persistence surface the server reads and manages.
type RecordStore interface {
	GetRecord(ctx context.Context, id string) (*model.AnalysisRecord, error)
	GetByShareToken(ctx context.Context, token string) (*model.AnalysisRecord, error)
	ListRecords(ctx context.Context, limit, offset int) ([]*model.AnalysisRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	SetShare(ctx context.Context, id, token string, public bool) error
	ClearShare(ctx context.Context, id string) error
	IncrementAccess(ctx context.Context, id string) error
}

// Server is the HTTP API server.
type Server struct {
	pipeline    Analyzer
	store       RecordStore
	logger      *slog.Logger
	mux         *http.ServeMux
	server      *http.Server
	corsEnabled bool

	// archiveSaveBase is the save-page-now endpoint; tests point it at a
	// local server.
	archiveSaveBase string
	archiveClient   *http.Client
}

// NewServer creates the API server and registers its routes.
func NewServer(p Analyzer, st RecordStore, cfg model.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		pipeline:        p,
		store:           st,
		logger:          logger,
		mux:             http.NewServeMux(),
		corsEnabled:     cfg.CORSEnabled,
		archiveSaveBase: "https://web.archive.org/save/",
		archiveClient:   &http.Client{Timeout: 30 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "pagesift.api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // analysis requests block on acquisition and extraction
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())

	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/analyses", s.handleList)
	s.mux.HandleFunc("GET /api/analyses/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /api/analyses/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /api/analyses/{id}/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/analyses/{id}/claims", s.handleClaims)
	s.mux.HandleFunc("POST /api/analyses/{id}/share", s.handleShare)
	s.mux.HandleFunc("DELETE /api/analyses/{id}/share", s.handleUnshare)
	s.mux.HandleFunc("POST /api/analyses/{id}/archive", s.handleArchive)
	s.mux.HandleFunc("GET /api/shared/{token}", s.handleShared)
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.middleware(s.mux)
}

// Start begins serving. Blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// middleware applies CORS and request logging to every route.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		}
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

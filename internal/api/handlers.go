package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pagesift/pagesift/internal/fetch"
	"github.com/pagesift/pagesift/internal/model"
	"github.com/pagesift/pagesift/internal/pipeline"
	"github.com/pagesift/pagesift/internal/store"
	"github.com/pagesift/pagesift/internal/urlkit"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// handleAnalyze runs the full pipeline for one URL. Acquisition failures are
// client-actionable: they return 422 with bypass and archive links rather
// than a generic 500.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	switch req.Mode {
	case "", model.ModeQuick, model.ModeNormal, model.ModeFull:
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}

	rec, err := s.pipeline.Analyze(r.Context(), req)
	if err != nil {
		var acqErr *fetch.AcquisitionError
		if errors.As(err, &acqErr) {
			respondJSON(w, http.StatusUnprocessableEntity, acquisitionFailure(acqErr))
			return
		}
		s.logger.Error("analysis failed", "url", req.URL, "error", err)
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// acquisitionFailure builds the structured 422 payload: the caller can still
// offer manual bypass and archive links for the URL.
func acquisitionFailure(acqErr *fetch.AcquisitionError) map[string]any {
	return map[string]any{
		"error":           acqErr.Reason,
		"technical_error": acqErr.Technical,
		"suggestion":      "the content may be paywalled or blocked; try one of the bypass or archive links",
		"sources_tried":   acqErr.Attempts,
		"bypass_urls":     urlkit.BypassURLs(acqErr.URL),
		"archive_urls":    urlkit.ArchiveURLs(acqErr.URL),
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	records, err := s.store.ListRecords(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("listing records failed", "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if records == nil {
		records = []*model.AnalysisRecord{}
	}
	// Trim text bodies from the listing; clients fetch full records by id.
	for _, rec := range records {
		rec.ExtractedText = ""
	}
	respondJSON(w, http.StatusOK, map[string]any{"analyses": records, "count": len(records)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	if err := s.store.IncrementAccess(r.Context(), rec.ID); err != nil {
		s.logger.Warn("incrementing access count failed", "id", rec.ID, "error", err)
	}
	rec.AccessCount++
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteRecord(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		s.logger.Error("deleting record failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleStatus returns the record plus its per-component completion map so
// clients can render progressively while later stages fill in.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	status := model.StatusFor(rec)
	respondJSON(w, http.StatusOK, map[string]any{
		"analysis":   rec,
		"components": status.Components,
		"progress":   status.Progress,
	})
}

// handleClaims (re)runs claim extraction and deception scoring for an
// existing analysis. Idempotent: repeated calls replace the claim set.
func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	analysis, err := s.pipeline.AnalyzeClaims(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		s.logger.Error("claim analysis failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "claim analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// handleShare mints a share token for the record, or returns the existing
// one when the record is already public. Re-sharing must not revoke links
// already handed out.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}

	token := rec.ShareToken
	if token == "" || !rec.IsPublic {
		token = uuid.NewString()
		if err := s.store.SetShare(r.Context(), rec.ID, token, true); err != nil {
			s.logger.Error("sharing record failed", "id", rec.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"share_token": token,
		"share_path":  "/api/shared/" + token,
	})
}

func (s *Server) handleUnshare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.ClearShare(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		s.logger.Error("revoking share failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"unshared": id})
}

func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	rec, err := s.store.GetByShareToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "shared analysis not found")
			return
		}
		s.logger.Error("loading shared record failed", "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if err := s.store.IncrementAccess(r.Context(), rec.ID); err != nil {
		s.logger.Warn("incrementing access count failed", "id", rec.ID, "error", err)
	}
	respondJSON(w, http.StatusOK, rec)
}

// handleArchive asks the save-page-now service to capture the record's URL.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}

	saveURL := s.archiveSaveBase + rec.URLNormalized
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, saveURL, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive request failed")
		return
	}
	resp, err := s.archiveClient.Do(req)
	if err != nil {
		s.logger.Warn("archive save failed", "url", rec.URLNormalized, "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]any{
			"archived": false,
			"error":    "archive service unreachable",
		})
		return
	}
	resp.Body.Close()

	archived := resp.StatusCode >= 200 && resp.StatusCode < 400
	respondJSON(w, http.StatusOK, map[string]any{
		"archived":    archived,
		"archive_url": "https://web.archive.org/web/" + rec.URLNormalized,
		"status_code": resp.StatusCode,
	})
}

func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (*model.AnalysisRecord, bool) {
	id := r.PathValue("id")
	rec, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return nil, false
		}
		s.logger.Error("loading record failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	return rec, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 0 {
		return fallback
	}
	return n
}

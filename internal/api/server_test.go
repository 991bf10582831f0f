package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagesift/pagesift/internal/fetch"
	"github.com/pagesift/pagesift/internal/model"
	"github.com/pagesift/pagesift/internal/pipeline"
	"github.com/pagesift/pagesift/internal/store"
)

type fakePipeline struct {
	rec      *model.AnalysisRecord
	analysis *model.ClaimAnalysis
	err      error
}

func (f *fakePipeline) Analyze(_ context.Context, _ pipeline.Request) (*model.AnalysisRecord, error) {
	return f.rec, f.err
}

func (f *fakePipeline) AnalyzeClaims(_ context.Context, _ string) (*model.ClaimAnalysis, error) {
	return f.analysis, f.err
}

type fakeStore struct {
	records map[string]*model.AnalysisRecord
	tokens  map[string]string
}

func newFakeStore(recs ...*model.AnalysisRecord) *fakeStore {
	f := &fakeStore{records: map[string]*model.AnalysisRecord{}, tokens: map[string]string{}}
	for _, r := range recs {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeStore) GetRecord(_ context.Context, id string) (*model.AnalysisRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeStore) GetByShareToken(_ context.Context, token string) (*model.AnalysisRecord, error) {
	id, ok := f.tokens[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f.GetRecord(context.Background(), id)
}

func (f *fakeStore) ListRecords(_ context.Context, _, _ int) ([]*model.AnalysisRecord, error) {
	var out []*model.AnalysisRecord
	for _, r := range f.records {
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) SetShare(_ context.Context, id, token string, public bool) error {
	rec, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.ShareToken = token
	rec.IsPublic = public
	f.tokens[token] = id
	return nil
}

func (f *fakeStore) ClearShare(_ context.Context, id string) error {
	rec, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(f.tokens, rec.ShareToken)
	rec.ShareToken = ""
	rec.IsPublic = false
	return nil
}

func (f *fakeStore) IncrementAccess(_ context.Context, id string) error {
	if rec, ok := f.records[id]; ok {
		rec.AccessCount++
	}
	return nil
}

func newTestServer(p Analyzer, st RecordStore) *Server {
	logger := slog.New(slog.NewTextHandler(nullWriter{}, nil))
	return NewServer(p, st, model.ServerConfig{Addr: ":0", CORSEnabled: true}, logger)
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakePipeline{}, newFakeStore())
	w := doRequest(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAnalyzeReturnsRecord(t *testing.T) {
	rec := &model.AnalysisRecord{ID: "abc", URL: "https://example.com", Summary: "a summary"}
	s := newTestServer(&fakePipeline{rec: rec}, newFakeStore())

	w := doRequest(t, s, http.MethodPost, "/api/analyze", map[string]any{"url": "https://example.com", "mode": "normal"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var got model.AnalysisRecord
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "abc" || got.Summary != "a summary" {
		t.Errorf("record = %+v", got)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s := newTestServer(&fakePipeline{}, newFakeStore())

	if w := doRequest(t, s, http.MethodPost, "/api/analyze", map[string]any{"mode": "normal"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodPost, "/api/analyze", map[string]any{"url": "https://x.com", "mode": "turbo"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode: status = %d", w.Code)
	}
}

func TestAnalyzeAcquisitionFailureIs422(t *testing.T) {
	acqErr := &fetch.AcquisitionError{
		URL:      "https://paywalled.example.com/story",
		Reason:   "could not retrieve readable content from the URL or any archive mirror",
		Attempts: []string{"original", "archive.org", "wayback-cdx", "proxy"},
	}
	s := newTestServer(&fakePipeline{err: acqErr}, newFakeStore())

	w := doRequest(t, s, http.MethodPost, "/api/analyze", map[string]any{"url": acqErr.URL})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}

	var payload struct {
		Error       string   `json:"error"`
		Suggestion  string   `json:"suggestion"`
		BypassURLs  []string `json:"bypass_urls"`
		ArchiveURLs []string `json:"archive_urls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error == "" || payload.Suggestion == "" {
		t.Errorf("payload = %+v", payload)
	}
	if len(payload.BypassURLs) == 0 || len(payload.ArchiveURLs) == 0 {
		t.Error("422 payload must carry bypass and archive links")
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestServer(&fakePipeline{}, newFakeStore())
	if w := doRequest(t, s, http.MethodGet, "/api/analyses/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStatusReportsComponents(t *testing.T) {
	rec := &model.AnalysisRecord{
		ID:            "abc",
		Summary:       "done",
		WordFrequency: map[string]int{"phrase": 3},
	}
	s := newTestServer(&fakePipeline{}, newFakeStore(rec))

	w := doRequest(t, s, http.MethodGet, "/api/analyses/abc/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var payload struct {
		Components map[string]string `json:"components"`
		Progress   int               `json:"progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Components[model.ComponentSummary] != "complete" {
		t.Errorf("summary component = %q", payload.Components[model.ComponentSummary])
	}
	if payload.Components[model.ComponentEntities] != "pending" {
		t.Errorf("entities component = %q", payload.Components[model.ComponentEntities])
	}
	if payload.Progress <= 0 || payload.Progress >= 100 {
		t.Errorf("progress = %d, want partial", payload.Progress)
	}
}

func TestShareRoundTrip(t *testing.T) {
	rec := &model.AnalysisRecord{ID: "abc", Summary: "shared content"}
	st := newFakeStore(rec)
	s := newTestServer(&fakePipeline{}, st)

	w := doRequest(t, s, http.MethodPost, "/api/analyses/abc/share", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("share status = %d", w.Code)
	}
	var share struct {
		ShareToken string `json:"share_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &share); err != nil || share.ShareToken == "" {
		t.Fatalf("share payload: %s", w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/api/shared/"+share.ShareToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("shared fetch status = %d", w.Code)
	}

	w = doRequest(t, s, http.MethodDelete, "/api/analyses/abc/share", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unshare status = %d", w.Code)
	}
	if w = doRequest(t, s, http.MethodGet, "/api/shared/"+share.ShareToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("revoked token status = %d, want 404", w.Code)
	}
}

func TestShareReusesExistingToken(t *testing.T) {
	rec := &model.AnalysisRecord{ID: "abc", Summary: "shared content"}
	st := newFakeStore(rec)
	s := newTestServer(&fakePipeline{}, st)

	var first, second struct {
		ShareToken string `json:"share_token"`
	}
	w := doRequest(t, s, http.MethodPost, "/api/analyses/abc/share", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil || first.ShareToken == "" {
		t.Fatalf("first share payload: %s", w.Body.String())
	}
	w = doRequest(t, s, http.MethodPost, "/api/analyses/abc/share", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil || second.ShareToken == "" {
		t.Fatalf("second share payload: %s", w.Body.String())
	}

	if first.ShareToken != second.ShareToken {
		t.Fatalf("re-sharing minted a new token: %q then %q", first.ShareToken, second.ShareToken)
	}
	if w = doRequest(t, s, http.MethodGet, "/api/shared/"+first.ShareToken, nil); w.Code != http.StatusOK {
		t.Errorf("original share link broken after re-share: status = %d", w.Code)
	}
}

func TestDeleteRecord(t *testing.T) {
	st := newFakeStore(&model.AnalysisRecord{ID: "abc"})
	s := newTestServer(&fakePipeline{}, st)

	if w := doRequest(t, s, http.MethodDelete, "/api/analyses/abc", nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodDelete, "/api/analyses/abc", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestArchiveSaveUsesService(t *testing.T) {
	saveCalled := false
	archiveSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saveCalled = true
		w.WriteHeader(http.StatusOK)
	}))
	defer archiveSrv.Close()

	rec := &model.AnalysisRecord{ID: "abc", URLNormalized: "https://example.com/story"}
	s := newTestServer(&fakePipeline{}, newFakeStore(rec))
	s.archiveSaveBase = archiveSrv.URL + "/save/"
	s.archiveClient = archiveSrv.Client()

	w := doRequest(t, s, http.MethodPost, "/api/analyses/abc/archive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !saveCalled {
		t.Error("save-page-now service was not called")
	}

	var payload struct {
		Archived bool `json:"archived"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil || !payload.Archived {
		t.Errorf("payload = %s", w.Body.String())
	}
}

package store

import (
	"context"
	"strings"
	"sync"

	"github.com/pagesift/pagesift/internal/model"
)

// Memory is an in-process store for one-shot CLI runs where no database is
// configured. It honors the same reservation atomicity as the Postgres
// store.
type Memory struct {
	mu      sync.Mutex
	records map[string]*model.AnalysisRecord
	dedup   map[string]*model.DeduplicationEntry
	chunks  map[string][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*model.AnalysisRecord),
		dedup:   make(map[string]*model.DeduplicationEntry),
		chunks:  make(map[string][]string),
	}
}

func (m *Memory) SaveRecord(_ context.Context, rec *model.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *rec
	m.records[rec.ID] = &clone
	return nil
}

func (m *Memory) GetRecord(_ context.Context, id string) (*model.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *Memory) Reserve(_ context.Context, contentHash, canonicalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.dedup[contentHash]; exists {
		return ErrDigestConflict
	}
	m.dedup[contentHash] = &model.DeduplicationEntry{
		ContentHash:      contentHash,
		CanonicalID:      canonicalID,
		TotalAccessCount: 1,
	}
	return nil
}

func (m *Memory) Lookup(_ context.Context, contentHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.dedup[contentHash]
	if !ok {
		return "", ErrNotFound
	}
	return entry.CanonicalID, nil
}

func (m *Memory) RecordHit(_ context.Context, contentHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.dedup[contentHash]; ok {
		entry.DuplicateCount++
		entry.TotalAccessCount++
	}
	return nil
}

func (m *Memory) IncrementAccess(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.AccessCount++
	}
	return nil
}

func (m *Memory) SaveChunks(_ context.Context, analysisID string, chunks []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[analysisID] = chunks
	return nil
}

func (m *Memory) FullText(_ context.Context, analysisID, head string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return head + strings.Join(m.chunks[analysisID], ""), nil
}

func (m *Memory) UpdateClaimAnalysis(_ context.Context, id string, analysis *model.ClaimAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.ClaimAnalysis = analysis
	return nil
}

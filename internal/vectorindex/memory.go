package vectorindex

import (
	"context"
	"sync"

	"pdf-chat-go/internal/model"
)

// MemoryIndex keeps entries in process memory, one partition per document.
type MemoryIndex struct {
	mu         sync.RWMutex
	partitions map[string]map[string]model.IndexEntry
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{partitions: make(map[string]map[string]model.IndexEntry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, pdfID string, entries []model.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tagged := tag(pdfID, entries)

	m.mu.Lock()
	defer m.mu.Unlock()
	part, ok := m.partitions[pdfID]
	if !ok {
		part = make(map[string]model.IndexEntry, len(tagged))
		m.partitions[pdfID] = part
	}
	for _, e := range tagged {
		part[e.ID] = e
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, pdfID string, vector []float32, k int) ([]model.ScoredEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	part := m.partitions[pdfID]
	candidates := make([]model.IndexEntry, 0, len(part))
	for _, e := range part {
		candidates = append(candidates, e)
	}
	m.mu.RUnlock()

	return rank(candidates, vector, k), nil
}

// Len returns the number of entries stored for pdfID.
func (m *MemoryIndex) Len(pdfID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.partitions[pdfID])
}

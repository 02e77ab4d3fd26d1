// Package vectorindex stores chunk vectors partitioned by document and
// answers nearest-neighbour queries scoped to a single document.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
	"pdf-chat-go/internal/model"
	"pdf-chat-go/pkg/database"
	"pdf-chat-go/pkg/es"
)

// Index is the vector store contract.
//
// Every Query is scoped to one pdf_id and never returns entries of another
// document. A document without entries yields an empty slice and a nil error;
// failures of the backing store wrap apperr.ErrIndexUnavailable.
type Index interface {
	// Upsert inserts entries for pdfID, replacing entries whose id already exists.
	Upsert(ctx context.Context, pdfID string, entries []model.IndexEntry) error
	// Query returns at most k entries of pdfID, most similar first.
	Query(ctx context.Context, pdfID string, vector []float32, k int) ([]model.ScoredEntry, error)
}

// Open builds the configured backend. dims is the embedding width and
// modelVersion is recorded next to each vector where the backend supports it.
func Open(ctx context.Context, cfg config.VectorIndexConfig, dims int, modelVersion string) (Index, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryIndex(), nil
	case "sql":
		db, err := database.OpenSQL(cfg.Driver, cfg.DSN, cfg.Directory)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
		}
		return NewSQLIndex(db)
	case "elasticsearch":
		client, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
		}
		if err := es.CreateIndexIfNotExists(ctx, client, cfg.Elasticsearch.IndexName, dims); err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
		}
		return NewESIndex(client, cfg.Elasticsearch.IndexName, modelVersion), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector index backend %q", apperr.ErrConfig, cfg.Backend)
	}
}

// Cosine returns the cosine similarity of a and b, 0 when either is a zero
// vector or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rank scores candidates against vector and keeps the best k.
// Ties are broken by chunk order so results are reproducible.
func rank(candidates []model.IndexEntry, vector []float32, k int) []model.ScoredEntry {
	scored := make([]model.ScoredEntry, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, model.ScoredEntry{IndexEntry: c, Score: Cosine(vector, c.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ChunkNo < scored[j].ChunkNo
	})
	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// tag stamps pdfID onto every entry so a caller cannot store an entry under the wrong document.
func tag(pdfID string, entries []model.IndexEntry) []model.IndexEntry {
	out := make([]model.IndexEntry, len(entries))
	for i, e := range entries {
		e.PdfID = pdfID
		if e.Metadata == nil {
			e.Metadata = map[string]string{}
		} else {
			md := make(map[string]string, len(e.Metadata)+1)
			for k, v := range e.Metadata {
				md[k] = v
			}
			e.Metadata = md
		}
		e.Metadata["pdf_id"] = pdfID
		out[i] = e
	}
	return out
}

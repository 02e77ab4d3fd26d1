// Package service contains the application's business logic.
package service

import (
	"context"
	"fmt"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
	"pdf-chat-go/internal/vectorindex"
	"pdf-chat-go/pkg/embedding"
	"pdf-chat-go/pkg/log"
	"pdf-chat-go/pkg/textsplit"
)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 3

// RetrievalService indexes document text and finds the chunks relevant to a question.
type RetrievalService interface {
	// Store normalizes and chunks text, embeds all chunks in one batch and
	// upserts them under pdfID. It returns the number of chunks stored.
	Store(ctx context.Context, pdfID, text string) (int, error)
	// Retrieve returns up to k chunk texts of pdfID, most relevant first.
	// An empty slice means the document has no matching chunks; a failing
	// index or embedder is reported as apperr.ErrRetrieval.
	Retrieve(ctx context.Context, pdfID, query string, k int) ([]string, error)
}

type retrievalService struct {
	chunker         *textsplit.Chunker
	embeddingClient embedding.Client
	index           vectorindex.Index
}

// NewRetrievalService creates a RetrievalService.
func NewRetrievalService(chunker *textsplit.Chunker, embeddingClient embedding.Client, index vectorindex.Index) RetrievalService {
	return &retrievalService{
		chunker:         chunker,
		embeddingClient: embeddingClient,
		index:           index,
	}
}

func (s *retrievalService) Store(ctx context.Context, pdfID, text string) (int, error) {
	chunks := s.chunker.Split(textsplit.Normalize(text))
	if len(chunks) == 0 {
		log.Warnf("[RetrievalService] no chunks produced, pdf_id: %s", pdfID)
		return 0, nil
	}

	vectors, err := s.embeddingClient.CreateEmbeddings(ctx, chunks)
	if err != nil {
		log.Errorf("[RetrievalService] failed to embed %d chunks, pdf_id: %s, error: %v", len(chunks), pdfID, err)
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: expected %d vectors, got %d", apperr.ErrEmbedding, len(chunks), len(vectors))
	}

	entries := make([]model.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = model.IndexEntry{
			ID:       model.ChunkID(pdfID, i),
			PdfID:    pdfID,
			ChunkNo:  i,
			Text:     chunk,
			Vector:   vectors[i],
			Metadata: map[string]string{"pdf_id": pdfID},
		}
	}
	if err := s.index.Upsert(ctx, pdfID, entries); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	log.Infof("[RetrievalService] stored %d chunks for pdf %s", len(chunks), pdfID)
	return len(chunks), nil
}

func (s *retrievalService) Retrieve(ctx context.Context, pdfID, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[RetrievalService] failed to embed query, pdf_id: %s, error: %v", pdfID, err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrRetrieval, err)
	}

	hits, err := s.index.Query(ctx, pdfID, vector, k)
	if err != nil {
		log.Errorf("[RetrievalService] index query failed, pdf_id: %s, error: %v", pdfID, err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrRetrieval, err)
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	return texts, nil
}

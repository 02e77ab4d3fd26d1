// Package repository provides the document registry.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
)

// DocumentRepository stores uploaded documents by id.
type DocumentRepository interface {
	Save(ctx context.Context, doc *model.Document) error
	// FindByID returns apperr.ErrNotFound for an unknown id.
	FindByID(ctx context.Context, id string) (*model.Document, error)
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type memoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
}

// NewMemoryDocumentRepository keeps documents for the lifetime of the process.
func NewMemoryDocumentRepository() DocumentRepository {
	return &memoryDocumentRepository{docs: make(map[string]*model.Document)}
}

func (r *memoryDocumentRepository) Save(_ context.Context, doc *model.Document) error {
	cp := *doc
	r.mu.Lock()
	r.docs[doc.ID] = &cp
	r.mu.Unlock()
	return nil
}

func (r *memoryDocumentRepository) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

func (r *memoryDocumentRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.docs[id]
	return ok, nil
}

func (r *memoryDocumentRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.docs)), nil
}

const redisDocumentIDsKey = "pdf:ids"

type redisDocumentRepository struct {
	redisClient *redis.Client
}

// NewRedisDocumentRepository stores each document as JSON under pdf:{id}
// without expiry, so documents survive a restart.
func NewRedisDocumentRepository(redisClient *redis.Client) DocumentRepository {
	return &redisDocumentRepository{redisClient: redisClient}
}

func documentKey(id string) string {
	return fmt.Sprintf("pdf:%s", id)
}

func (r *redisDocumentRepository) Save(ctx context.Context, doc *model.Document) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, documentKey(doc.ID), jsonData, 0)
		pipe.SAdd(ctx, redisDocumentIDsKey, doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	return nil
}

func (r *redisDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	jsonData, err := r.redisClient.Get(ctx, documentKey(id)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	var doc model.Document
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	return &doc, nil
}

func (r *redisDocumentRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.redisClient.Exists(ctx, documentKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check document %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *redisDocumentRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.redisClient.SCard(ctx, redisDocumentIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

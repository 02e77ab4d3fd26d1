package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"pdf-chat-go/internal/cache"
	"pdf-chat-go/internal/config"
	"pdf-chat-go/internal/middleware"
	"pdf-chat-go/internal/pipeline"
	"pdf-chat-go/internal/repository"
	"pdf-chat-go/internal/router"
	"pdf-chat-go/internal/service"
	"pdf-chat-go/internal/vectorindex"
	"pdf-chat-go/pkg/database"
	"pdf-chat-go/pkg/embedding"
	"pdf-chat-go/pkg/kafka"
	"pdf-chat-go/pkg/llm"
	"pdf-chat-go/pkg/log"
	"pdf-chat-go/pkg/pdf"
	"pdf-chat-go/pkg/storage"
	"pdf-chat-go/pkg/textsplit"
	"pdf-chat-go/pkg/tika"
)

// app holds every long-lived component built from the configuration.
type app struct {
	documents service.DocumentService
	chat      service.ChatService
	limiter   middleware.Limiter
	closers   []func() error
}

// buildApp wires the configured backends. withChat is false for commands
// that never answer questions.
func buildApp(ctx context.Context, cfg *config.Config, withChat bool) (*app, error) {
	a := &app{}

	embedder, err := embedding.NewClient(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	index, err := vectorindex.Open(ctx, cfg.VectorIndex, cfg.Embedding.Dimensions, embedder.ModelVersion())
	if err != nil {
		return nil, err
	}
	if c, ok := index.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	log.Infof("vector index ready, backend: %s", cfg.VectorIndex.Backend)

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = database.OpenRedis(ctx, cfg.Database.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
	}

	docRepo := repository.NewMemoryDocumentRepository()
	if cfg.Registry.Backend == "redis" {
		docRepo = repository.NewRedisDocumentRepository(rdb)
	}

	var extractor pdf.Extractor = pdf.NewNativeExtractor()
	if cfg.Extractor.Backend == "tika" {
		extractor = tika.NewClient(cfg.Tika)
	}

	chunker, err := textsplit.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	retrieval := service.NewRetrievalService(chunker, embedder, index)

	var archive pipeline.ObjectArchive
	if cfg.MinIO.Enabled {
		minioArchive, err := storage.NewMinioArchive(ctx, cfg.MinIO)
		if err != nil {
			a.Close()
			return nil, err
		}
		archive = minioArchive
	}

	var publisher pipeline.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		a.closers = append(a.closers, producer.Close)
		publisher = producer
	}

	processor := pipeline.NewProcessor(extractor, retrieval, docRepo, archive, publisher)
	a.documents = service.NewDocumentService(processor, docRepo)

	if withChat {
		llmClient, err := llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.chat = service.NewChatService(retrieval, llmClient, cache.New(cfg.Cache.Capacity), cfg.LLM.Timeout, cfg.Chunking.TopK)
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Backend == "redis" {
			a.limiter = middleware.NewRedisLimiter(rdb)
		} else {
			a.limiter = middleware.NewMemoryLimiter(0)
		}
	}
	return a, nil
}

func (a *app) routerServices() router.Services {
	return router.Services{Documents: a.documents, Chat: a.chat, Limiter: a.limiter}
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Errorf("failed to close component: %v", err)
		}
	}
	a.closers = nil
}

// Package embedding provides clients that turn text into dense vectors.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

// Client defines the interface for an embedding client.
type Client interface {
	// CreateEmbedding embeds a single text (a query).
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// CreateEmbeddings embeds a batch in one provider call; the result is index-aligned with texts.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// ModelVersion names the model that produced the vectors.
	ModelVersion() string
}

// NewClient creates an embedding client for the configured provider.
func NewClient(ctx context.Context, cfg config.EmbeddingConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	case "openai":
		return NewOpenAICompatibleClient(cfg), nil
	case "hashing":
		return NewHashingClient(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", apperr.ErrConfig, cfg.Provider)
	}
}

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewOpenAICompatibleClient talks to any server exposing POST {base_url}/embeddings,
// e.g. a sentence-transformers server hosting all-MiniLM-L6-v2.
func NewOpenAICompatibleClient(cfg config.EmbeddingConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *openAICompatibleClient) ModelVersion() string { return c.cfg.Model }

// CreateEmbedding calls the API with a single input.
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings calls the OpenAI-compatible API once for the whole batch.
func (c *openAICompatibleClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	log.Infof("[EmbeddingClient] calling embedding API, model: %s, inputs: %d", c.cfg.Model, len(texts))

	reqBytes, err := json.Marshal(embeddingRequest{
		Model:      c.cfg.Model,
		Input:      texts,
		Dimensions: c.cfg.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal embedding request: %v", apperr.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create embedding request: %v", apperr.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] embedding API call failed, error: %v", err)
		return nil, fmt.Errorf("%w: failed to call embedding api: %w", apperr.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] embedding API returned non-200 status: %s", resp.Status)
		return nil, fmt.Errorf("%w: embedding api returned non-200 status: %s", apperr.ErrEmbedding, resp.Status)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		log.Errorf("[EmbeddingClient] failed to decode embedding response, error: %v", err)
		return nil, fmt.Errorf("%w: failed to decode embedding response: %v", apperr.ErrEmbedding, err)
	}
	if len(embeddingResp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", apperr.ErrEmbedding, len(texts), len(embeddingResp.Data))
	}

	vectors := make([][]float32, len(texts))
	for i, d := range embeddingResp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(texts) || vectors[idx] != nil {
			idx = i
		}
		if len(d.Embedding) == 0 {
			log.Warnf("[EmbeddingClient] embedding API returned an empty vector at %d", idx)
			return nil, fmt.Errorf("%w: received empty embedding from api", apperr.ErrEmbedding)
		}
		vectors[idx] = d.Embedding
	}

	log.Infof("[EmbeddingClient] received %d vectors, dims: %d", len(vectors), len(vectors[0]))
	return vectors, nil
}

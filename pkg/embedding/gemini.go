package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

// geminiMaxBatch is the most requests batchEmbedContents accepts in one call.
const geminiMaxBatch = 100

type geminiClient struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiClient embeds through the Gemini API using the genai SDK.
func NewGeminiClient(ctx context.Context, cfg config.EmbeddingConfig) (Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiClient{client: client, model: cfg.Model, dimensions: cfg.Dimensions}, nil
}

func (c *geminiClient) ModelVersion() string { return c.model }

func (c *geminiClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings embeds texts in order, in EmbedContent calls of at most
// geminiMaxBatch contents each.
func (c *geminiClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiMaxBatch {
		end := min(start+geminiMaxBatch, len(texts))
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *geminiClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}
	var embedCfg *genai.EmbedContentConfig
	if c.dimensions > 0 {
		dims := int32(c.dimensions)
		embedCfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, embedCfg)
	if err != nil {
		log.Errorf("[EmbeddingClient] gemini embed call failed, model: %s, error: %v", c.model, err)
		return nil, fmt.Errorf("%w: gemini embed call failed: %w", apperr.ErrEmbedding, err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", apperr.ErrEmbedding, len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: received empty embedding at %d", apperr.ErrEmbedding, i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

type geminiClient struct {
	client *genai.Client
	model  string
	gen    GenerationParams
}

// NewGeminiClient creates a Gemini client through the genai SDK.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiClient{client: client, model: cfg.Model, gen: ParamsFromConfig(cfg.Generation)}, nil
}

func (c *geminiClient) GenerateContent(ctx context.Context, prompt string) (*Response, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.generateConfig())
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}

	out := &Response{}
	for _, cand := range resp.Candidates {
		var converted Candidate
		if cand != nil && cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part != nil && part.Text != "" {
					converted.Parts = append(converted.Parts, part.Text)
				}
			}
		}
		out.Candidates = append(out.Candidates, converted)
	}
	if len(out.Candidates) == 0 {
		log.Warnf("[LLMClient] gemini returned no candidates, model: %s", c.model)
	}
	return out, nil
}

func (c *geminiClient) generateConfig() *genai.GenerateContentConfig {
	if c.gen.Temperature == nil && c.gen.TopP == nil && c.gen.MaxTokens == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{}
	if c.gen.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*c.gen.Temperature))
	}
	if c.gen.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*c.gen.TopP))
	}
	if c.gen.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*c.gen.MaxTokens)
	}
	return cfg
}

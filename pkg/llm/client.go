// Package llm provides clients for Large Language Model providers.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
)

// Client defines the interface for an LLM client.
type Client interface {
	// GenerateContent sends one prompt and returns the provider's candidates untouched.
	GenerateContent(ctx context.Context, prompt string) (*Response, error)
}

// Response is a provider-neutral view of a generation result.
type Response struct {
	Candidates []Candidate
}

// Candidate is one alternative answer, split into text parts.
type Candidate struct {
	Parts []string
}

// FirstText returns the first part of the first candidate. ok is false when
// the response carries no candidate or the first candidate has no parts.
func (r *Response) FirstText() (text string, ok bool) {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Parts) == 0 {
		return "", false
	}
	return r.Candidates[0].Parts[0], true
}

// GenerationParams controls sampling. Nil fields use the provider default.
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// ParamsFromConfig converts non-zero config values to GenerationParams.
func ParamsFromConfig(cfg config.LLMGenerationConfig) GenerationParams {
	var gp GenerationParams
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		gp.Temperature = &t
	}
	if cfg.TopP != 0 {
		p := cfg.TopP
		gp.TopP = &p
	}
	if cfg.MaxTokens != 0 {
		m := cfg.MaxTokens
		gp.MaxTokens = &m
	}
	return gp
}

// NewClient creates an LLM client for the configured provider.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	case "openai":
		return NewOpenAICompatibleClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", apperr.ErrConfig, cfg.Provider)
	}
}

type openAICompatibleClient struct {
	cfg    config.LLMConfig
	gen    GenerationParams
	client *http.Client
}

// NewOpenAICompatibleClient calls POST {base_url}/chat/completions with streaming
// and gathers the streamed deltas into a single candidate.
func NewOpenAICompatibleClient(cfg config.LLMConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		gen:    ParamsFromConfig(cfg.Generation),
		client: &http.Client{},
	}
}

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatStreamChunk struct {
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *openAICompatibleClient) GenerateContent(ctx context.Context, prompt string) (*Response, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Stream:      true,
		Temperature: c.gen.Temperature,
		TopP:        c.gen.TopP,
		MaxTokens:   c.gen.MaxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	// one builder per choice index
	var answers []*strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read from stream: %w", err)
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			if data == "[DONE]" {
				break
			}
			var chunk chatStreamChunk
			if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr == nil {
				for _, choice := range chunk.Choices {
					for len(answers) <= choice.Index {
						answers = append(answers, &strings.Builder{})
					}
					answers[choice.Index].WriteString(choice.Delta.Content)
				}
			}
		}
		if err == io.EOF {
			break
		}
	}

	out := &Response{}
	for _, b := range answers {
		var cand Candidate
		if b.Len() > 0 {
			cand.Parts = []string{b.String()}
		}
		out.Candidates = append(out.Candidates, cand)
	}
	return out, nil
}

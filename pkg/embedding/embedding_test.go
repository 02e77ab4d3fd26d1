package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashingClient_Deterministic(t *testing.T) {
	h := NewHashingClient(128)
	ctx := context.Background()

	a, err := h.CreateEmbedding(ctx, "The quick brown fox")
	require.NoError(t, err)
	b, err := h.CreateEmbedding(ctx, "the QUICK brown fox")
	require.NoError(t, err)

	assert.Len(t, a, 128)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
}

func TestHashingClient_Similarity(t *testing.T) {
	h := NewHashingClient(512)
	ctx := context.Background()

	vectors, err := h.CreateEmbeddings(ctx, []string{
		"photosynthesis converts sunlight into chemical energy in plants",
		"how do plants turn sunlight into energy",
		"the stock market closed lower on friday",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Greater(t, cosine(vectors[0], vectors[1]), cosine(vectors[0], vectors[2]))
}

func TestHashingClient_EmptyText(t *testing.T) {
	h := NewHashingClient(0)
	v, err := h.CreateEmbedding(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, v, 256)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestHashingClient_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashingClient(8).CreateEmbeddings(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAICompatibleClient_Batch(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		// answer out of order; the client must realign by index
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatibleClient(config.EmbeddingConfig{BaseURL: srv.URL, APIKey: "secret", Model: "all-MiniLM-L6-v2"})
	vectors, err := c.CreateEmbeddings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, got.Input)
	assert.Equal(t, "all-MiniLM-L6-v2", got.Model)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, "all-MiniLM-L6-v2", c.ModelVersion())
}

func TestOpenAICompatibleClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "non-200", status: http.StatusBadGateway, payload: `{}`},
		{name: "count mismatch", status: http.StatusOK, payload: `{"data":[]}`},
		{name: "empty vector", status: http.StatusOK, payload: `{"data":[{"index":0,"embedding":[]}]}`},
		{name: "bad json", status: http.StatusOK, payload: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			c := NewOpenAICompatibleClient(config.EmbeddingConfig{BaseURL: srv.URL})
			_, err := c.CreateEmbedding(context.Background(), "q")
			assert.ErrorIs(t, err, apperr.ErrEmbedding)
		})
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.EmbeddingConfig{Provider: "word2vec"})
	assert.ErrorIs(t, err, apperr.ErrConfig)
}

func TestNewClient_Hashing(t *testing.T) {
	c, err := NewClient(context.Background(), config.EmbeddingConfig{Provider: "hashing", Dimensions: 32})
	require.NoError(t, err)
	v, err := c.CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 32)
}

func TestGeminiClient_SplitsLargeBatches(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":batchEmbedContents"), r.URL.Path)
		var body struct {
			Requests []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"requests"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		calls = append(calls, len(body.Requests))
		mu.Unlock()

		if len(body.Requests) > 100 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "at most 100 requests can be in one batch", "status": "INVALID_ARGUMENT"}}`))
			return
		}
		type embedding struct {
			Values []float32 `json:"values"`
		}
		resp := struct {
			Embeddings []embedding `json:"embeddings"`
		}{}
		for _, req := range body.Requests {
			// "t<n>" embeds to [n]
			n, err := strconv.Atoi(strings.TrimPrefix(req.Content.Parts[0].Text, "t"))
			assert.NoError(t, err)
			resp.Embeddings = append(resp.Embeddings, embedding{Values: []float32{float32(n)}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), config.EmbeddingConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "text-embedding-004",
	})
	require.NoError(t, err)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}
	vectors, err := c.CreateEmbeddings(context.Background(), texts)
	require.NoError(t, err)

	assert.Equal(t, []int{100, 100, 50}, calls)
	require.Len(t, vectors, 250)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i)}, v)
	}
}

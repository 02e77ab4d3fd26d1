package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashingClient is an offline embedder: word unigrams and bigrams are hashed
// into a fixed number of buckets with a sign bit, and the result is L2-normalized.
// Texts sharing words land close together, which is enough for local runs and tests.
type HashingClient struct {
	dims int
}

// NewHashingClient returns a hashing embedder producing vectors of dims entries (256 when dims <= 0).
func NewHashingClient(dims int) *HashingClient {
	if dims <= 0 {
		dims = 256
	}
	return &HashingClient{dims: dims}
}

func (h *HashingClient) ModelVersion() string { return "feature-hashing" }

// Dimension returns the vector length.
func (h *HashingClient) Dimension() int { return h.dims }

func (h *HashingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.embed(text), nil
}

func (h *HashingClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = h.embed(t)
	}
	return vectors, nil
}

func (h *HashingClient) embed(text string) []float32 {
	acc := make([]float64, h.dims)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		h.add(acc, tok, 1.0)
		if i > 0 {
			h.add(acc, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	out := make([]float32, h.dims)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

func (h *HashingClient) add(acc []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	acc[bucket] += weight
}

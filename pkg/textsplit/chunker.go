package textsplit

import (
	"fmt"
	"strings"

	"pdf-chat-go/internal/apperr"
)

const (
	// DefaultChunkSize is the window length in words.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of words shared by consecutive windows.
	DefaultChunkOverlap = 50
)

// Chunker splits normalized text into overlapping word windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters: size > 0 and 0 <= overlap < size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", apperr.ErrValidation, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", apperr.ErrValidation, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", apperr.ErrValidation, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window length in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of words shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the ordered windows of text. The window start advances by
// size-overlap and the loop stops once the start reaches the token count;
// the last window may be shorter than size.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

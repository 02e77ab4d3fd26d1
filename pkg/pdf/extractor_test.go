package pdf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/pkg/pdf/pdftest"
)

func TestNativeExtractor_SinglePage(t *testing.T) {
	doc := pdftest.WithInfo("This is a sample PDF for testing.", "Sample", "QA Team")

	ext, err := NewNativeExtractor().Extract(context.Background(), "sample.pdf", doc)
	require.NoError(t, err)

	assert.Equal(t, 1, ext.PageCount)
	assert.Contains(t, ext.Text, "This is a sample PDF for testing.")
	assert.Equal(t, "Sample", ext.Title)
	assert.Equal(t, "QA Team", ext.Author)
}

func TestNativeExtractor_EscapedText(t *testing.T) {
	ext, err := NewNativeExtractor().Extract(context.Background(), "paren.pdf", pdftest.Minimal(`f(x) \ g`))
	require.NoError(t, err)
	assert.Equal(t, `f(x) \ g`, strings.TrimSpace(ext.Text))
}

func TestNativeExtractor_NotAPDF(t *testing.T) {
	_, err := NewNativeExtractor().Extract(context.Background(), "notes.pdf", []byte("just some text, no pdf here"))
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

func TestNativeExtractor_Empty(t *testing.T) {
	_, err := NewNativeExtractor().Extract(context.Background(), "empty.pdf", nil)
	assert.ErrorIs(t, err, apperr.ErrExtraction)
}

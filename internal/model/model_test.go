package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "abc_0", ChunkID("abc", 0))
	assert.Equal(t, "abc_12", ChunkID("abc", 12))
}

func TestDocument_SummaryOmitsText(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)
	doc := &Document{
		ID:             "id-1",
		FileName:       "a.pdf",
		Text:           "raw text",
		NormalizedText: "raw text",
		PageCount:      2,
		ChunkCount:     1,
		CreatedAt:      created,
	}

	raw, err := json.Marshal(doc.Summary())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "id-1", decoded["pdf_id"])
	assert.Equal(t, "2024-03-01 10:30:00", decoded["created_at"])
	assert.NotContains(t, decoded, "text")
	assert.NotContains(t, decoded, "normalized_text")
}

func TestEsDocument_RoundTrip(t *testing.T) {
	entry := IndexEntry{
		ID:       "doc_3",
		PdfID:    "doc",
		ChunkNo:  3,
		Text:     "hello",
		Vector:   []float32{0.1, 0.2},
		Metadata: map[string]string{"pdf_id": "doc"},
	}

	es := entry.ToEsDocument("text-embedding-004")
	assert.Equal(t, "text-embedding-004", es.ModelVersion)
	assert.Equal(t, entry, es.Entry())
}

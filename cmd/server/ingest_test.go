package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/pdf/pdftest"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Chunking:    config.ChunkingConfig{ChunkSize: 500, Overlap: 50, TopK: 3},
		Extractor:   config.ExtractorConfig{Backend: "native"},
		Embedding:   config.EmbeddingConfig{Provider: "hashing", Dimensions: 64},
		VectorIndex: config.VectorIndexConfig{Backend: "memory"},
		Registry:    config.RegistryConfig{Backend: "memory"},
		Cache:       config.CacheConfig{Capacity: 10},
		LLM:         config.LLMConfig{Provider: "openai", BaseURL: "http://127.0.0.1:1", Model: "test"},
		RateLimit:   config.RateLimitConfig{Enabled: true, Backend: "memory", Default: 10, PDF: 3, Chat: 3},
	}
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestBuildApp_Memory(t *testing.T) {
	a, err := buildApp(context.Background(), memoryConfig(), true)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.documents)
	assert.NotNil(t, a.chat)
	assert.NotNil(t, a.limiter)
}

func TestBuildApp_InvalidChunking(t *testing.T) {
	cfg := memoryConfig()
	cfg.Chunking.Overlap = cfg.Chunking.ChunkSize

	_, err := buildApp(context.Background(), cfg, false)
	assert.Error(t, err)
}

func TestCheckIngestConfig(t *testing.T) {
	cfg := memoryConfig()
	err := checkIngestConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.backend")

	cfg.Registry.Backend = "redis"
	err = checkIngestConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector_index.backend")

	cfg.VectorIndex.Backend = "sql"
	assert.NoError(t, checkIngestConfig(cfg))
}

func TestCollectPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), pdftest.Minimal("a"))
	writeFile(t, filepath.Join(dir, "nested", "B.PDF"), pdftest.Minimal("b"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip me"))

	paths, err := collectPDFs(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "nested", "B.PDF"),
	}, paths)

	single, err := collectPDFs(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf")}, single)

	_, err = collectPDFs(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestIngest_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.pdf"), pdftest.Minimal("The first document."))
	writeFile(t, filepath.Join(dir, "two.pdf"), pdftest.Minimal("The second document."))
	writeFile(t, filepath.Join(dir, "broken.pdf"), []byte("not a pdf"))

	a, err := buildApp(context.Background(), memoryConfig(), false)
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	indexed, failed := ingest(context.Background(), a.documents, dir, &out)
	assert.Equal(t, 2, indexed)
	assert.Equal(t, 1, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		id, path, ok := strings.Cut(line, "\t")
		require.True(t, ok)
		doc, err := a.documents.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, filepath.Base(path), doc.FileName)
		assert.Equal(t, 1, doc.ChunkCount)
	}
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
)

func repositories(t *testing.T) map[string]DocumentRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]DocumentRepository{
		"memory": NewMemoryDocumentRepository(),
		"redis":  NewRedisDocumentRepository(rdb),
	}
}

func TestDocumentRepository_SaveAndFind(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := &model.Document{
				ID:         "3f0c9a1e-0000-4000-8000-000000000001",
				FileName:   "sample.pdf",
				Text:       "This is a sample PDF for testing.\n",
				PageCount:  1,
				Title:      "Sample",
				ChunkCount: 1,
				CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			}
			require.NoError(t, repo.Save(ctx, doc))

			got, err := repo.FindByID(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, doc.FileName, got.FileName)
			assert.Equal(t, doc.Text, got.Text)
			assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))

			ok, err := repo.Exists(ctx, doc.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}

func TestDocumentRepository_NotFound(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repo.FindByID(ctx, "nope")
			assert.ErrorIs(t, err, apperr.ErrNotFound)

			ok, err := repo.Exists(ctx, "nope")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryDocumentRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryDocumentRepository()
	ctx := context.Background()
	doc := &model.Document{ID: "a", Title: "original"}
	require.NoError(t, repo.Save(ctx, doc))

	doc.Title = "mutated after save"
	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestRedisDocumentRepository_NoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	repo := NewRedisDocumentRepository(rdb)
	require.NoError(t, repo.Save(context.Background(), &model.Document{ID: "a"}))

	assert.True(t, mr.Exists("pdf:a"))
	assert.Zero(t, mr.TTL("pdf:a"))
}

func TestRedisDocumentRepository_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	repo := NewRedisDocumentRepository(rdb)
	_, err := repo.FindByID(context.Background(), "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/config"
)

// fakeS3 answers the handful of S3 calls the archive makes.
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string][]byte
	ctypes   map[string]string
	putCalls int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := r.URL.Query()["location"]; ok {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, object, _ := strings.Cut(path, "/")
	switch {
	case r.Method == http.MethodHead && object == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && object == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.putCalls++
		f.objects[path] = body
		f.ctypes[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}, ctypes: map[string]string{}}
}

func TestMinioArchive_CreatesBucketAndStoresObject(t *testing.T) {
	s3 := newFakeS3()
	srv := httptest.NewServer(s3)
	defer srv.Close()

	archive, err := NewMinioArchive(context.Background(), config.MinIOConfig{
		Endpoint:        strings.TrimPrefix(srv.URL, "http://"),
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "pdf-uploads",
	})
	require.NoError(t, err)
	assert.True(t, s3.buckets["pdf-uploads"])

	content := []byte("%PDF-1.4 archived")
	require.NoError(t, archive.Archive(context.Background(), "pdfs/abc.pdf", content, "application/pdf"))

	assert.Equal(t, 1, s3.putCalls)
	assert.Contains(t, string(s3.objects["pdf-uploads/pdfs/abc.pdf"]), string(content))
	assert.Equal(t, "application/pdf", s3.ctypes["pdf-uploads/pdfs/abc.pdf"])
}

func TestMinioArchive_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewMinioArchive(ctx, config.MinIOConfig{
		Endpoint:   addr,
		BucketName: "pdf-uploads",
	})
	assert.Error(t, err)
}

package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
)

func TestClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-fake", string(body))

		switch r.URL.Path {
		case "/tika":
			assert.Equal(t, "text/plain", r.Header.Get("Accept"))
			_, _ = w.Write([]byte("\nHello from Tika\n"))
		case "/meta":
			_, _ = w.Write([]byte(`{"xmpTPg:NPages":"4","dc:title":"Annual Report","dc:creator":["Alice","Bob"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(config.TikaConfig{ServerURL: srv.URL + "/", Timeout: time.Second})
	ext, err := c.Extract(context.Background(), "report.PDF", []byte("%PDF-fake"))
	require.NoError(t, err)

	assert.Equal(t, "\nHello from Tika\n", ext.Text)
	assert.Equal(t, 4, ext.PageCount)
	assert.Equal(t, "Annual Report", ext.Title)
	assert.Equal(t, "Alice", ext.Author)
}

func TestClient_ExtractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse failure", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewClient(config.TikaConfig{ServerURL: srv.URL}).Extract(context.Background(), "a.pdf", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrExtraction)
	assert.Contains(t, err.Error(), "parse failure")
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", detectMimeType("x.pdf"))
	assert.Equal(t, "application/octet-stream", detectMimeType("noext"))
}

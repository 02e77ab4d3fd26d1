package es

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat-go/internal/config"
)

func newTLSCluster(t *testing.T, created *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created.Add(1)
			_, _ = w.Write([]byte(`{"acknowledged": true}`))
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_VerifiesCertificatesByDefault(t *testing.T) {
	var created atomic.Int32
	srv := newTLSCluster(t, &created)

	client, err := NewClient(config.ElasticsearchConfig{Addresses: srv.URL})
	require.NoError(t, err)

	err = CreateIndexIfNotExists(context.Background(), client, "pdf_chunks", 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate")
	assert.Zero(t, created.Load())
}

func TestNewClient_InsecureSkipVerify(t *testing.T) {
	var created atomic.Int32
	srv := newTLSCluster(t, &created)

	client, err := NewClient(config.ElasticsearchConfig{Addresses: srv.URL, InsecureSkipVerify: true})
	require.NoError(t, err)

	require.NoError(t, CreateIndexIfNotExists(context.Background(), client, "pdf_chunks", 8))
	assert.EqualValues(t, 1, created.Load())
}

func TestTransport(t *testing.T) {
	assert.Nil(t, transport(config.ElasticsearchConfig{}))

	rt := transport(config.ElasticsearchConfig{InsecureSkipVerify: true})
	require.IsType(t, &http.Transport{}, rt)
	assert.True(t, rt.(*http.Transport).TLSClientConfig.InsecureSkipVerify)
}

func TestIndexMapping(t *testing.T) {
	mapping := IndexMapping(384)
	assert.Contains(t, mapping, `"dims": 384`)
	assert.Contains(t, mapping, `"pdf_id": { "type": "keyword" }`)
}

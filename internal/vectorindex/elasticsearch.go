package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
	"pdf-chat-go/pkg/log"
)

// ESIndex stores entries as dense_vector documents and queries them with
// approximate kNN, pre-filtered by a term query on pdf_id.
type ESIndex struct {
	client       *elasticsearch.Client
	indexName    string
	modelVersion string
}

// NewESIndex wraps an existing client. The index must already exist.
func NewESIndex(client *elasticsearch.Client, indexName, modelVersion string) *ESIndex {
	return &ESIndex{client: client, indexName: indexName, modelVersion: modelVersion}
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Upsert indexes all entries with one bulk request. Document ids are the chunk
// ids, so a repeated id overwrites that document only. The request refreshes
// the index so a query issued right after sees the new chunks.
func (e *ESIndex) Upsert(ctx context.Context, pdfID string, entries []model.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, entry := range tag(pdfID, entries) {
		action := map[string]map[string]string{"index": {"_index": e.indexName, "_id": entry.ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(entry.ToEsDocument(e.modelVersion)); err != nil {
			return fmt.Errorf("failed to encode document %s: %w", entry.ID, err)
		}
	}

	req := esapi.BulkRequest{
		Index:   e.indexName,
		Body:    &body,
		Refresh: "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		log.Errorf("[ESIndex] bulk request failed, pdf_id: %s, error: %v", pdfID, err)
		return fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("[ESIndex] bulk request rejected, pdf_id: %s, response: %s", pdfID, res.String())
		return fmt.Errorf("%w: bulk request returned %s", apperr.ErrIndexUnavailable, res.Status())
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("%w: failed to decode bulk response: %w", apperr.ErrIndexUnavailable, err)
	}
	if br.Errors {
		for _, item := range br.Items {
			for _, result := range item {
				if result.Error != nil {
					log.Errorf("[ESIndex] bulk item failed, pdf_id: %s, type: %s, reason: %s", pdfID, result.Error.Type, result.Error.Reason)
					return fmt.Errorf("%w: %s: %s", apperr.ErrIndexUnavailable, result.Error.Type, result.Error.Reason)
				}
			}
		}
	}
	return nil
}

type knnSearchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64          `json:"_score"`
			Source model.EsDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query runs a kNN search restricted to pdfID. Elasticsearch reports cosine
// similarity as (1+cos)/2; scores are mapped back to cosine.
func (e *ESIndex) Query(ctx context.Context, pdfID string, vector []float32, k int) ([]model.ScoredEntry, error) {
	if k <= 0 {
		return []model.ScoredEntry{}, nil
	}
	numCandidates := k * 10
	if numCandidates < 100 {
		numCandidates = 100
	}
	query := map[string]interface{}{
		"size": k,
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": numCandidates,
			"filter": map[string]interface{}{
				"term": map[string]interface{}{"pdf_id": pdfID},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[ESIndex] search failed, pdf_id: %s, error: %v", pdfID, err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("[ESIndex] search rejected, pdf_id: %s, response: %s", pdfID, res.String())
		return nil, fmt.Errorf("%w: search returned %s", apperr.ErrIndexUnavailable, res.Status())
	}

	var sr knnSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %w", apperr.ErrIndexUnavailable, err)
	}

	out := make([]model.ScoredEntry, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		if hit.Source.PdfID != pdfID {
			// the filter guarantees this; a mismatch means a corrupt document
			log.Warnf("[ESIndex] dropping hit %s of pdf_id %s while querying %s", hit.Source.VectorID, hit.Source.PdfID, pdfID)
			continue
		}
		out = append(out, model.ScoredEntry{IndexEntry: hit.Source.Entry(), Score: 2*hit.Score - 1})
	}
	return out, nil
}

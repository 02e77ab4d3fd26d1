// Package es provides the Elasticsearch client and index bootstrap.
package es

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

// NewClient creates an Elasticsearch client. Addresses may be comma separated.
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	var addrs []string
	for _, a := range strings.Split(esCfg.Addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: transport(esCfg),
	}
	return elasticsearch.NewClient(cfg)
}

// transport returns nil (the client default, verifying certificates) unless
// verification is explicitly turned off.
func transport(esCfg config.ElasticsearchConfig) http.RoundTripper {
	if !esCfg.InsecureSkipVerify {
		return nil
	}
	log.Warnf("Elasticsearch TLS certificate verification is disabled")
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return t
}

// IndexMapping returns the chunk index mapping for vectors of dims entries.
// pdf_id is a keyword so kNN queries can pre-filter on it.
func IndexMapping(dims int) string {
	return fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"vector_id": { "type": "keyword" },
				"pdf_id": { "type": "keyword" },
				"chunk_no": { "type": "integer" },
				"text_content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" },
				"metadata": { "type": "object", "enabled": false }
			}
		}
	}`, dims)
}

// CreateIndexIfNotExists checks whether indexName exists and creates it with IndexMapping otherwise.
func CreateIndexIfNotExists(ctx context.Context, client *elasticsearch.Client, indexName string, dims int) error {
	res, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("failed to check whether index exists: %v", err)
		return err
	}
	res.Body.Close()
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("index '%s' already exists", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("unexpected status while checking index '%s': %d", indexName, res.StatusCode)
		return fmt.Errorf("unexpected status while checking index: %d", res.StatusCode)
	}

	res, err = client.Indices.Create(
		indexName,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(IndexMapping(dims))),
	)
	if err != nil {
		log.Errorf("failed to create index '%s': %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("elasticsearch rejected index '%s': %s", indexName, res.String())
		return errors.New("elasticsearch returned an error while creating the index")
	}

	log.Infof("index '%s' created", indexName)
	return nil
}

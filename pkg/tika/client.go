// Package tika provides a client for an Apache Tika server, used as an
// alternative PDF extractor.
package tika

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/pdf"
)

// Client talks to a Tika server.
type Client struct {
	serverURL string
	http      *http.Client
}

// NewClient creates a Tika client.
func NewClient(cfg config.TikaConfig) *Client {
	return &Client{
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Extract sends the file to /tika for plain text and to /meta for page count,
// title and author.
func (c *Client) Extract(ctx context.Context, fileName string, content []byte) (*pdf.Extraction, error) {
	text, err := c.ExtractText(ctx, bytes.NewReader(content), fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrExtraction, err)
	}
	meta, err := c.metadata(ctx, content, fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrExtraction, err)
	}

	ext := &pdf.Extraction{
		Text:   text,
		Title:  meta.first("dc:title", "title"),
		Author: meta.first("dc:creator", "Author", "meta:author"),
	}
	if n, err := strconv.Atoi(meta.first("xmpTPg:NPages")); err == nil {
		ext.PageCount = n
	}
	return ext, nil
}

// ExtractText infers the MIME type from the file suffix and asks Tika for plain text.
func (c *Client) ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	resp, err := c.put(ctx, "/tika", "text/plain", fileReader, fileName)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return "", fmt.Errorf("failed to read tika response: %w", err)
	}
	return buf.String(), nil
}

// tika reports each metadata key as either a string or a list of strings
type metadata map[string]json.RawMessage

func (m metadata) first(keys ...string) string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

func (c *Client) metadata(ctx context.Context, content []byte, fileName string) (metadata, error) {
	resp, err := c.put(ctx, "/meta", "application/json", bytes.NewReader(content), fileName)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var m metadata
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode tika metadata: %w", err)
	}
	return m, nil
}

func (c *Client) put(ctx context.Context, path, accept string, body io.Reader, fileName string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create tika request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", detectMimeType(fileName))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tika: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tika returned error [%d]: %s", resp.StatusCode, string(b))
	}
	return resp, nil
}

// detectMimeType maps the file extension to a Content-Type.
func detectMimeType(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return "application/octet-stream"
	}
	mimeType := mime.TypeByExtension(strings.ToLower(ext))
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}

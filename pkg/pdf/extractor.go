// Package pdf extracts plain text and document info from PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/pkg/log"
)

// Extraction is the text and metadata pulled out of one PDF.
type Extraction struct {
	Text      string
	PageCount int
	Title     string
	Author    string
}

// Extractor turns the bytes of an uploaded file into an Extraction.
type Extractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (*Extraction, error)
}

// NativeExtractor parses PDFs in-process with github.com/ledongthuc/pdf.
type NativeExtractor struct{}

// NewNativeExtractor returns an in-process extractor.
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{}
}

// Extract reads every page in order and joins page texts with newlines.
// Pages whose text cannot be decoded are skipped with a warning; a file that
// cannot be opened as a PDF at all is an extraction error.
func (e *NativeExtractor) Extract(ctx context.Context, fileName string, content []byte) (ext *Extraction, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			ext = nil
			err = fmt.Errorf("%w: malformed pdf %s: %v", apperr.ErrExtraction, fileName, r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open pdf %s: %w", apperr.ErrExtraction, fileName, err)
	}

	pageCount := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warnf("[PDFExtractor] failed to extract page %d of %s: %v", i, fileName, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	ext = &Extraction{Text: sb.String(), PageCount: pageCount}
	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		ext.Title = strings.TrimSpace(info.Key("Title").Text())
		ext.Author = strings.TrimSpace(info.Key("Author").Text())
	}
	return ext, nil
}

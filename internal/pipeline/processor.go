// Package pipeline runs the upload processing flow of a single PDF.
package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
	"pdf-chat-go/internal/repository"
	"pdf-chat-go/pkg/log"
	"pdf-chat-go/pkg/pdf"
	"pdf-chat-go/pkg/tasks"
	"pdf-chat-go/pkg/textsplit"
)

// ChunkStore indexes the text of a document.
type ChunkStore interface {
	Store(ctx context.Context, pdfID, text string) (int, error)
}

// ObjectArchive keeps a copy of the uploaded file.
type ObjectArchive interface {
	Archive(ctx context.Context, objectName string, content []byte, contentType string) error
}

// EventPublisher announces processed documents.
type EventPublisher interface {
	PublishDocumentIndexed(ctx context.Context, event tasks.DocumentIndexedEvent) error
}

// Processor wires the dependencies of the upload flow. archive and publisher are optional.
type Processor struct {
	extractor pdf.Extractor
	store     ChunkStore
	docRepo   repository.DocumentRepository
	archive   ObjectArchive
	publisher EventPublisher
	now       func() time.Time
}

// NewProcessor creates a Processor. archive and publisher may be nil.
func NewProcessor(
	extractor pdf.Extractor,
	store ChunkStore,
	docRepo repository.DocumentRepository,
	archive ObjectArchive,
	publisher EventPublisher,
) *Processor {
	return &Processor{
		extractor: extractor,
		store:     store,
		docRepo:   docRepo,
		archive:   archive,
		publisher: publisher,
		now:       time.Now,
	}
}

// ObjectName is where the original upload of pdfID is archived.
func ObjectName(pdfID string) string {
	return fmt.Sprintf("pdfs/%s.pdf", pdfID)
}

// Process extracts, indexes and registers one uploaded PDF. The document is
// only registered after its chunks are stored, so a returned id is immediately
// answerable. Archive and publish failures are logged and do not fail the upload.
func (p *Processor) Process(ctx context.Context, task tasks.DocumentTask) (*model.Document, error) {
	log.Infof("[Processor] processing file, pdf_id: %s, file_name: %s, size: %d bytes", task.PdfID, task.FileName, len(task.Content))

	if len(task.Content) == 0 {
		log.Warnf("[Processor] file '%s' is empty, aborting", task.FileName)
		return nil, fmt.Errorf("%w: file is empty", apperr.ErrExtraction)
	}

	// 1. extract
	ext, err := p.extractor.Extract(ctx, task.FileName, task.Content)
	if err != nil {
		log.Errorf("[Processor] text extraction failed, file_name: %s, error: %v", task.FileName, err)
		if !errors.Is(err, apperr.ErrExtraction) {
			err = fmt.Errorf("%w: %w", apperr.ErrExtraction, err)
		}
		return nil, err
	}
	log.Infof("[Processor] extracted %d characters from %d pages", utf8.RuneCountInString(ext.Text), ext.PageCount)

	sum := blake2b.Sum256(task.Content)
	doc := &model.Document{
		ID:             task.PdfID,
		FileName:       task.FileName,
		Text:           ext.Text,
		NormalizedText: textsplit.Normalize(ext.Text),
		PageCount:      ext.PageCount,
		Title:          ext.Title,
		Author:         ext.Author,
		Checksum:       hex.EncodeToString(sum[:]),
		CreatedAt:      p.now(),
	}
	if doc.NormalizedText == "" {
		log.Warnf("[Processor] no text found in '%s'; every question will get the no-context answer", task.FileName)
	}

	// 2. archive the original
	var objectName string
	if p.archive != nil {
		objectName = ObjectName(task.PdfID)
		if err := p.archive.Archive(ctx, objectName, task.Content, "application/pdf"); err != nil {
			log.Errorf("[Processor] failed to archive original, object: %s, error: %v", objectName, err)
			objectName = ""
		}
	}

	// 3. chunk, embed and index
	n, err := p.store.Store(ctx, doc.ID, doc.NormalizedText)
	if err != nil {
		log.Errorf("[Processor] failed to store chunks, pdf_id: %s, error: %v", doc.ID, err)
		return nil, err
	}
	doc.ChunkCount = n

	// 4. register
	if err := p.docRepo.Save(ctx, doc); err != nil {
		log.Errorf("[Processor] failed to register document, pdf_id: %s, error: %v", doc.ID, err)
		return nil, fmt.Errorf("failed to register document: %w", err)
	}

	// 5. announce
	if p.publisher != nil {
		event := tasks.DocumentIndexedEvent{
			Type:       tasks.EventDocumentIndexed,
			PdfID:      doc.ID,
			FileName:   doc.FileName,
			Checksum:   doc.Checksum,
			PageCount:  doc.PageCount,
			ChunkCount: doc.ChunkCount,
			ObjectName: objectName,
			IndexedAt:  doc.CreatedAt,
		}
		if err := p.publisher.PublishDocumentIndexed(ctx, event); err != nil {
			log.Errorf("[Processor] failed to publish %s event, pdf_id: %s, error: %v", tasks.EventDocumentIndexed, doc.ID, err)
		}
	}

	log.Infof("[Processor] file processed, pdf_id: %s, chunks: %d", doc.ID, doc.ChunkCount)
	return doc, nil
}

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
	"pdf-chat-go/internal/repository"
	"pdf-chat-go/pkg/log"
	"pdf-chat-go/pkg/tasks"
)

// DocumentProcessor turns an uploaded file into a registered, indexed document.
type DocumentProcessor interface {
	Process(ctx context.Context, task tasks.DocumentTask) (*model.Document, error)
}

// DocumentService handles uploads and document lookups.
type DocumentService interface {
	// Upload rejects non-PDF file names before minting an id, then processes
	// the file synchronously.
	Upload(ctx context.Context, fileName string, content []byte) (*model.Document, error)
	Get(ctx context.Context, pdfID string) (*model.Document, error)
}

type documentService struct {
	processor DocumentProcessor
	docRepo   repository.DocumentRepository
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(processor DocumentProcessor, docRepo repository.DocumentRepository) DocumentService {
	return &documentService{processor: processor, docRepo: docRepo}
}

// IsPDFName reports whether fileName has a .pdf extension, in any case.
func IsPDFName(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

func (s *documentService) Upload(ctx context.Context, fileName string, content []byte) (*model.Document, error) {
	if !IsPDFName(fileName) {
		log.Warnf("[DocumentService] rejected non-pdf upload: %s", fileName)
		return nil, fmt.Errorf("%w: file is not a PDF", apperr.ErrValidation)
	}

	pdfID := uuid.NewString()
	doc, err := s.processor.Process(ctx, tasks.DocumentTask{
		PdfID:    pdfID,
		FileName: fileName,
		Content:  content,
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, pdfID string) (*model.Document, error) {
	return s.docRepo.FindByID(ctx, pdfID)
}

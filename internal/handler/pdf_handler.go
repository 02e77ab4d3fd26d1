// Package handler contains the HTTP controllers.
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-chat-go/internal/service"
	"pdf-chat-go/pkg/log"
)

// multipartSlack is room for multipart boundaries and part headers on top of the file itself.
const multipartSlack = 64 << 10

// PDFHandler serves uploads and document metadata.
type PDFHandler struct {
	docService     service.DocumentService
	maxUploadBytes int64
}

// NewPDFHandler creates a PDFHandler. maxUploadMB <= 0 disables the size check.
func NewPDFHandler(docService service.DocumentService, maxUploadMB int64) *PDFHandler {
	return &PDFHandler{docService: docService, maxUploadBytes: maxUploadMB << 20}
}

// Upload handles POST /v1/pdf with a multipart "file" field.
func (h *PDFHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		limit := h.maxUploadBytes + multipartSlack
		if c.Request.ContentLength > limit {
			h.abortTooLarge(c)
			return
		}
		// bounds what multipart parsing may buffer or spill to disk
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.abortTooLarge(c)
			return
		}
		abortWithDetail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if !service.IsPDFName(fileHeader.Filename) {
		abortWithDetail(c, http.StatusBadRequest, "File is not a PDF")
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		h.abortTooLarge(c)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Upload: failed to open uploaded file", err)
		abortWithDetail(c, http.StatusInternalServerError, "Failed to process PDF")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Error("Upload: failed to read uploaded file", err)
		abortWithDetail(c, http.StatusInternalServerError, "Failed to process PDF")
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			abortWithDetail(c, status, "File is not a PDF")
			return
		}
		log.Errorf("Upload: failed to process %s: %v", fileHeader.Filename, err)
		abortWithDetail(c, http.StatusInternalServerError, "Failed to process PDF")
		return
	}

	c.JSON(http.StatusOK, gin.H{"pdf_id": doc.ID})
}

func (h *PDFHandler) abortTooLarge(c *gin.Context) {
	abortWithDetail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB limit", h.maxUploadBytes>>20))
}

// Get handles GET /v1/pdf/:pdf_id and returns the document metadata.
func (h *PDFHandler) Get(c *gin.Context) {
	doc, err := h.docService.Get(c.Request.Context(), c.Param("pdf_id"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			abortWithDetail(c, status, "PDF not found")
			return
		}
		log.Error("Get: failed to load document", err)
		abortWithDetail(c, status, "Failed to load PDF")
		return
	}
	c.JSON(http.StatusOK, doc.Summary())
}

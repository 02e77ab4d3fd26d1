// Package tasks defines the payloads passed through the upload pipeline and published to Kafka.
package tasks

import "time"

// EventDocumentIndexed is the type of the event emitted once a document is searchable.
const EventDocumentIndexed = "document.indexed"

// DocumentTask is one uploaded file waiting to be processed.
type DocumentTask struct {
	PdfID    string `json:"pdf_id"`
	FileName string `json:"file_name"`
	Content  []byte `json:"-"`
}

// DocumentIndexedEvent is published after a document's chunks are stored and it is registered.
type DocumentIndexedEvent struct {
	Type       string    `json:"type"`
	PdfID      string    `json:"pdf_id"`
	FileName   string    `json:"file_name"`
	Checksum   string    `json:"checksum"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	ObjectName string    `json:"object_name,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

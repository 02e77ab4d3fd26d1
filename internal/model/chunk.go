package model

import "fmt"

// ChunkID builds the stable identifier of the i-th chunk of a document.
func ChunkID(pdfID string, index int) string {
	return fmt.Sprintf("%s_%d", pdfID, index)
}

// IndexEntry is the persisted form of a chunk: one row/point per chunk, always tagged with its pdf_id.
type IndexEntry struct {
	ID       string            `gorm:"type:varchar(80);primaryKey;column:id" json:"id"`
	PdfID    string            `gorm:"type:varchar(36);not null;index;column:pdf_id" json:"pdf_id"`
	ChunkNo  int               `gorm:"not null;column:chunk_no" json:"chunk_no"`
	Text     string            `gorm:"type:text;column:text" json:"text"`
	Vector   []float32         `gorm:"serializer:json;column:vector" json:"vector"`
	Metadata map[string]string `gorm:"serializer:json;column:metadata" json:"metadata,omitempty"`
}

// TableName pins the gorm table name.
func (IndexEntry) TableName() string {
	return "vector_entries"
}

// ScoredEntry is a query hit. Score is cosine similarity, higher is closer.
type ScoredEntry struct {
	IndexEntry
	Score float64 `json:"score"`
}

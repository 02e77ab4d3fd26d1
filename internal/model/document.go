// Package model contains the data types shared by the services and stores.
package model

import "time"

// Document is an uploaded PDF held in the registry.
// Identifiers are minted per upload and never reused.
type Document struct {
	ID             string    `json:"pdf_id"`
	FileName       string    `json:"file_name"`
	Text           string    `json:"text"`
	NormalizedText string    `json:"normalized_text"`
	PageCount      int       `json:"page_count"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Checksum       string    `json:"checksum"` // blake2b-256 of the uploaded bytes, hex
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// DocumentSummary is the public view of a Document, without the extracted text.
type DocumentSummary struct {
	ID         string    `json:"pdf_id"`
	FileName   string    `json:"file_name"`
	PageCount  int       `json:"page_count"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Checksum   string    `json:"checksum"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  LocalTime `json:"created_at"`
}

// Summary drops the text fields.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:         d.ID,
		FileName:   d.FileName,
		PageCount:  d.PageCount,
		Title:      d.Title,
		Author:     d.Author,
		Checksum:   d.Checksum,
		ChunkCount: d.ChunkCount,
		CreatedAt:  LocalTime(d.CreatedAt),
	}
}

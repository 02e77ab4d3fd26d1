package model

// EsDocument is the Elasticsearch _source of one index entry.
type EsDocument struct {
	VectorID     string            `json:"vector_id"` // {pdf_id}_{chunk_no}
	PdfID        string            `json:"pdf_id"`
	ChunkNo      int               `json:"chunk_no"`
	TextContent  string            `json:"text_content"`
	Vector       []float32         `json:"vector"`
	ModelVersion string            `json:"model_version"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ToEsDocument converts an entry, stamping the embedding model that produced it.
func (e IndexEntry) ToEsDocument(modelVersion string) EsDocument {
	return EsDocument{
		VectorID:     e.ID,
		PdfID:        e.PdfID,
		ChunkNo:      e.ChunkNo,
		TextContent:  e.Text,
		Vector:       e.Vector,
		ModelVersion: modelVersion,
		Metadata:     e.Metadata,
	}
}

// Entry converts back to the store-neutral form.
func (d EsDocument) Entry() IndexEntry {
	return IndexEntry{
		ID:       d.VectorID,
		PdfID:    d.PdfID,
		ChunkNo:  d.ChunkNo,
		Text:     d.TextContent,
		Vector:   d.Vector,
		Metadata: d.Metadata,
	}
}

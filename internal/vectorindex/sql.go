package vectorindex

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pdf-chat-go/internal/apperr"
	"pdf-chat-go/internal/model"
	"pdf-chat-go/pkg/log"
)

// SQLIndex stores entries in the vector_entries table through gorm (sqlite or
// mysql). Candidates are narrowed with WHERE pdf_id = ? and ranked in Go.
type SQLIndex struct {
	db *gorm.DB
}

// NewSQLIndex migrates the vector_entries table and returns the index.
func NewSQLIndex(db *gorm.DB) (*SQLIndex, error) {
	if err := db.AutoMigrate(&model.IndexEntry{}); err != nil {
		return nil, fmt.Errorf("%w: failed to migrate vector_entries: %w", apperr.ErrIndexUnavailable, err)
	}
	return &SQLIndex{db: db}, nil
}

func (s *SQLIndex) Upsert(ctx context.Context, pdfID string, entries []model.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tagged := tag(pdfID, entries)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&tagged, 100).Error
	if err != nil {
		log.Errorf("[SQLIndex] upsert failed, pdf_id: %s, entries: %d, error: %v", pdfID, len(tagged), err)
		return fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	return nil
}

func (s *SQLIndex) Query(ctx context.Context, pdfID string, vector []float32, k int) ([]model.ScoredEntry, error) {
	var candidates []model.IndexEntry
	if err := s.db.WithContext(ctx).Where("pdf_id = ?", pdfID).Find(&candidates).Error; err != nil {
		log.Errorf("[SQLIndex] query failed, pdf_id: %s, error: %v", pdfID, err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrIndexUnavailable, err)
	}
	return rank(candidates, vector, k), nil
}

// Close releases the underlying connection pool.
func (s *SQLIndex) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package repository

import (
	"fmt"

	"gorm.io/gorm"

	"askdocs/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateWithSegments stores a document and its segments in one transaction.
func (r *DocumentRepository) CreateWithSegments(doc *model.Document, segments []model.DocumentSegment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create document failed: %w", err)
		}
		if len(segments) == 0 {
			return nil
		}
		for i := range segments {
			segments[i].DocumentID = doc.ID
		}
		if err := tx.CreateInBatches(&segments, 200).Error; err != nil {
			return fmt.Errorf("create document segments failed: %w", err)
		}
		return nil
	})
}

func (r *DocumentRepository) ListBySessionID(sessionID string) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// ListSegments returns segments of the given documents in ingestion order.
func (r *DocumentRepository) ListSegments(documentIDs []uint) ([]model.DocumentSegment, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	var segments []model.DocumentSegment
	if err := r.db.Where("document_id IN ?", documentIDs).Order("document_id ASC, ordinal ASC").Find(&segments).Error; err != nil {
		return nil, fmt.Errorf("list document segments failed: %w", err)
	}
	return segments, nil
}

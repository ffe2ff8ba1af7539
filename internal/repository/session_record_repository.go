package repository

import (
	"fmt"

	"gorm.io/gorm"

	"askdocs/internal/model"
)

type SessionRecordRepository struct {
	db *gorm.DB
}

func NewSessionRecordRepository(db *gorm.DB) *SessionRecordRepository {
	return &SessionRecordRepository{db: db}
}

func (r *SessionRecordRepository) Create(record *model.SessionRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create session record failed: %w", err)
	}
	return nil
}

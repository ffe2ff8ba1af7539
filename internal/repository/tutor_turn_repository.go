package repository

import (
	"fmt"

	"gorm.io/gorm"

	"askdocs/internal/model"
)

type TutorTurnRepository struct {
	db *gorm.DB
}

func NewTutorTurnRepository(db *gorm.DB) *TutorTurnRepository {
	return &TutorTurnRepository{db: db}
}

func (r *TutorTurnRepository) Create(turn *model.TutorTurn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("create tutor turn failed: %w", err)
	}
	return nil
}

func (r *TutorTurnRepository) ListBySessionID(sessionID string, limit int) ([]model.TutorTurn, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var turns []model.TutorTurn
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Limit(limit).Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list tutor turns failed: %w", err)
	}
	return turns, nil
}

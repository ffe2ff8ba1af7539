package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"askdocs/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// GetActive returns nil when the session does not exist or has expired.
func (r *SessionRepository) GetActive(id string, now time.Time) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("id = ? AND expires_at > ?", id, now).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// DeleteExpired removes expired sessions together with their documents and
// segments, returning the number of sessions removed.
func (r *SessionRepository) DeleteExpired(now time.Time) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&model.Session{}).Select("id").Where("expires_at <= ?", now)
		docs := tx.Model(&model.Document{}).Select("id").Where("session_id IN (?)", expired)
		if err := tx.Where("document_id IN (?)", docs).Delete(&model.DocumentSegment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id IN (?)", expired).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		res := tx.Where("expires_at <= ?", now).Delete(&model.Session{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions failed: %w", err)
	}
	return removed, nil
}

package model

import "time"

// TutorTurn is an audit copy of one tutor chat turn.
type TutorTurn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null;index" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

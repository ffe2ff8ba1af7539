package model

import "time"

type SessionRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;uniqueIndex" json:"session_id"`
	Language  string    `gorm:"size:64;not null" json:"language"`
	VideoURL  string    `gorm:"size:512;not null" json:"video_url"`
	Path      string    `gorm:"size:512;not null" json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

package model

import "time"

const (
	SourceText    = "text"
	SourcePDF     = "pdf"
	SourceAudio   = "audio"
	SourceInvoice = "invoice"
)

type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    string    `gorm:"size:36;not null;index" json:"session_id"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	Source       string    `gorm:"size:16;not null" json:"source"`
	ContentHash  string    `gorm:"size:64;not null;index" json:"content_hash"`
	SegmentCount int       `gorm:"not null" json:"segment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

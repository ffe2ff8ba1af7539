package model

import "time"

const (
	SessionKindDocument = "document"
	SessionKindAudio    = "audio"
	SessionKindInvoice  = "invoice"
	SessionKindTutor    = "tutor"
)

// Session identifies one ingestion or tutor conversation. ID is a UUID.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Kind      string    `gorm:"size:16;not null;index" json:"kind"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

package models

import "time"

// QuoteCounter is the durable sequence behind quote codes. Value is stored as
// text so a corrupted store is representable and can be recovered instead of
// breaking the scan.
type QuoteCounter struct {
	Name      string    `json:"name" gorm:"primaryKey;size:32"`
	Value     string    `json:"value" gorm:"size:32;not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// TrashedQuote archives a deleted quote verbatim. Payload holds the full
// aggregate (pieces and payments included) so the trash subsystem can restore
// it into the exact shape it had before deletion.
type TrashedQuote struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	QuoteID      uint           `json:"quote_id" gorm:"index"`
	QuoteCode    string         `json:"quote_code" gorm:"size:40"`
	Payload      datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	Reason       string         `json:"reason"`
	Actor        string         `json:"actor" gorm:"size:128"`
	WasFinalized bool           `json:"was_finalized"`
	CreatedAt    time.Time      `json:"created_at"`
}

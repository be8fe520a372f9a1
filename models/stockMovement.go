package models

import "time"

// StockMovement is the audit trail for every inventory adjustment: the
// before/after levels plus a reason referencing the quote code and piece.
type StockMovement struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ProductID   string `json:"product_id" gorm:"size:36;index"`
	ProductName string `json:"product_name"`

	StockBefore float64 `json:"stock_before" gorm:"type:numeric(14,4)"`
	StockAfter  float64 `json:"stock_after" gorm:"type:numeric(14,4)"`
	Delta       float64 `json:"delta" gorm:"type:numeric(14,4)"`

	Reason string `json:"reason"`
	Actor  string `json:"actor" gorm:"size:128"`

	CreatedAt time.Time `json:"created_at"`
}

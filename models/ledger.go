package models

import "time"

const OriginQuote = "quote"

// Receivable is one accounts-receivable-eligible record, created per payment
// when a quote is finalized. The counterparty is snapshotted so the record
// survives later customer edits.
type Receivable struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	OriginType string `json:"origin_type" gorm:"size:20;not null;index:idx_receivables_origin,priority:1"`
	OriginID   uint   `json:"origin_id" gorm:"not null;index:idx_receivables_origin,priority:2"`
	QuoteCode  string `json:"quote_code" gorm:"size:40"`

	CustomerID       *uint  `json:"customer_id"`
	EmployeeID       *uint  `json:"employee_id"`
	CounterpartyName string `json:"counterparty_name"`

	Amount         float64 `json:"amount" gorm:"type:numeric(12,2)"`
	Method         string  `json:"method" gorm:"size:32"`
	BankAccountRef string  `json:"bank_account_ref" gorm:"size:64"`
	Settled        bool    `json:"settled" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	LedgerInflow  = "inflow"
	LedgerOutflow = "outflow"
)

// LedgerEntry is one cash-flow line mirroring a receivable-eligible payment.
type LedgerEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:10;not null"`
	Category    string    `json:"category" gorm:"size:40;not null"`
	Amount      float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Description string    `json:"description"`
	OriginType  string    `json:"origin_type" gorm:"size:20;index:idx_ledger_entries_origin,priority:1"`
	OriginID    uint      `json:"origin_id" gorm:"index:idx_ledger_entries_origin,priority:2"`
	CreatedAt   time.Time `json:"created_at"`
}

// InternalConsumption attributes a deferred-credit employee purchase to that
// employee; the monthly payroll closing (external) deducts it from wages.
type InternalConsumption struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	EmployeeID uint      `json:"employee_id" gorm:"not null;index"`
	QuoteID    uint      `json:"quote_id" gorm:"not null;index"`
	QuoteCode  string    `json:"quote_code" gorm:"size:40"`
	Amount     float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Deducted   bool      `json:"deducted" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteFinalized QuoteStatus = "finalized"
	QuoteTrashed   QuoteStatus = "trashed"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Quote is the wrap-budget aggregate: a mutable draft of priced pieces that
// becomes immutable once finalized.
type Quote struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"size:40;uniqueIndex"`
	// DraftToken is the provisional client handle before a durable id/code is
	// assigned on first save. Cleared from relevance once ID is set.
	DraftToken string      `json:"draft_token" gorm:"size:36;index"`
	Status     QuoteStatus `json:"status" gorm:"size:16;not null;default:draft"`

	// Counterparty snapshot. Exactly one of CustomerID/EmployeeID is set; an
	// employee quote routes receivables to internal consumption, it never
	// creates a customer record.
	CustomerID    *uint  `json:"customer_id"`
	EmployeeID    *uint  `json:"employee_id"`
	CustomerName  string `json:"customer_name"`
	CustomerTaxID string `json:"customer_tax_id"`

	Pieces []Piece `json:"pieces" gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	Discount     float64      `json:"discount" gorm:"type:numeric(12,2)"`
	DiscountKind DiscountKind `json:"discount_kind" gorm:"size:16;default:percentage"`
	Freight      float64      `json:"freight" gorm:"type:numeric(12,2)"`

	// Derived totals; source of truth is pricing.Compute, persisted so stored
	// quotes round-trip without the catalog.
	TotalArea      float64 `json:"total_area" gorm:"type:numeric(14,4)"`
	MaterialCost   float64 `json:"material_cost" gorm:"type:numeric(12,2)"`
	ServiceCost    float64 `json:"service_cost" gorm:"type:numeric(12,2)"`
	Subtotal       float64 `json:"subtotal" gorm:"type:numeric(12,2)"`
	DiscountAmount float64 `json:"discount_amount" gorm:"type:numeric(12,2)"`
	GrandTotal     float64 `json:"grand_total" gorm:"type:numeric(12,2)"`

	Payments []Payment `json:"payments" gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at"`
}

// AppliedService is the per-piece snapshot of one toggleable service.
// The name is frozen at save time so old quotes stay readable after the
// catalog entry is renamed or removed.
type AppliedService struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// Piece is one billable item within a quote: either dimensioned (priced by
// area) or unit-counted, with a material snapshot and per-piece services.
type Piece struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	QuoteID uint   `json:"-" gorm:"index"`
	Name    string `json:"name"`

	Height       float64 `json:"height" gorm:"type:numeric(10,4)"`
	Width        float64 `json:"width" gorm:"type:numeric(10,4)"`
	NoDimensions bool    `json:"no_dimensions"`
	Quantity     int     `json:"quantity"`

	// Material snapshot frozen at save time.
	MaterialID         *string     `json:"material_id" gorm:"size:36;index"`
	MaterialName       string      `json:"material_name"`
	MaterialUnit       MeasureUnit `json:"material_unit" gorm:"size:8"`
	MaterialUnitPrice  float64     `json:"material_unit_price" gorm:"type:numeric(12,2)"`
	MaterialPromoPrice *float64    `json:"material_promo_price" gorm:"type:numeric(12,2)"`

	// Services maps catalog service id -> applied flag + name snapshot.
	Services datatypes.JSONType[map[string]AppliedService] `json:"services"`
}

// AppliedServiceIDs returns the ids of the services toggled on for the piece.
func (p *Piece) AppliedServiceIDs() []string {
	var ids []string
	for id, as := range p.Services.Data() {
		if as.Applied {
			ids = append(ids, id)
		}
	}
	return ids
}

// HasAppliedService reports whether at least one service is toggled on.
func (p *Piece) HasAppliedService() bool {
	for _, as := range p.Services.Data() {
		if as.Applied {
			return true
		}
	}
	return false
}

const (
	PaymentCash           = "cash"
	PaymentCard           = "card"
	PaymentDeferredCredit = "deferred_credit"
)

// Payment is one instrument settling part of a finalized quote. Created only
// at finalize time; several payments may sum to the grand total (the caller
// supplies the split, it is not enforced here).
type Payment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	QuoteID        uint      `json:"-" gorm:"index"`
	Method         string    `json:"method" gorm:"size:32;not null"`
	Amount         float64   `json:"amount" gorm:"type:numeric(12,2)"`
	BankAccountRef string    `json:"bank_account_ref" gorm:"size:64"`
	CreatedAt      time.Time `json:"created_at"`
}

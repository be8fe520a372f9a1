package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeasureUnit is how a product or service is denominated: per square meter
// or per counted unit.
type MeasureUnit string

const (
	UnitArea  MeasureUnit = "area"
	UnitCount MeasureUnit = "count"
)

// Product is reference data owned by the catalog subsystem; this core only
// reads it and adjusts Stock.
type Product struct {
	Id        string      `json:"id" gorm:"primaryKey"`
	Name      string      `json:"name" gorm:"not null"`
	UnitPrice float64     `json:"unit_price" gorm:"type:numeric(12,2)"`
	// PromoPrice, when set, overrides UnitPrice while the promotion runs.
	PromoPrice *float64    `json:"promo_price" gorm:"type:numeric(12,2)"`
	Unit       MeasureUnit `json:"unit" gorm:"size:8;not null;default:area"`
	Stock      float64     `json:"stock" gorm:"type:numeric(14,4)"`

	// Components is the bill of materials: sub-products consumed
	// proportionally whenever this product is used.
	Components []ProductComponent `json:"components" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`

	Active bool `json:"-"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.Id == "" {
		// UUID version 4
		product.Id = uuid.NewString()
	}
	return
}

// ProductComponent is one bill-of-materials line: QuantityPerUnit of the
// component is consumed per area unit of the parent.
type ProductComponent struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	ProductID       string  `json:"-" gorm:"size:36;index"`
	ComponentID     string  `json:"component_id" gorm:"size:36;not null"`
	QuantityPerUnit float64 `json:"quantity_per_unit" gorm:"type:numeric(12,4)"`
}

// CatalogService is reference data for a per-piece toggleable service
// (installation, removal, plotting...). Read-only to this core.
type CatalogService struct {
	Id        string      `json:"id" gorm:"primaryKey"`
	Name      string      `json:"name" gorm:"not null"`
	UnitPrice float64     `json:"unit_price" gorm:"type:numeric(12,2)"`
	Unit      MeasureUnit `json:"unit" gorm:"size:8;not null;default:area"`
	Category  string      `json:"category"`
	Active    bool        `json:"-"`
}

func (svc *CatalogService) BeforeCreate(tx *gorm.DB) (err error) {
	if svc.Id == "" {
		svc.Id = uuid.NewString()
	}
	return
}

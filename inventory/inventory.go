// Package inventory commits and reverses stock deltas for area-priced
// materials used by a quote, cascading into bill-of-materials components.
package inventory

import (
	"fmt"
	"sort"

	"envelopamento-backend/database"
	"envelopamento-backend/errs"
	"envelopamento-backend/models"
	"envelopamento-backend/pricing"
	"envelopamento-backend/utils"

	"gorm.io/gorm"
)

type Direction int

const (
	Deduct Direction = iota
	Restore
)

// Adjust applies the quote's stock deltas in the given direction, inside the
// caller's transaction. Only area-priced materials are touched; unit-counted
// products are not stock-managed by this engine. Every delta leaves a
// StockMovement audit row.
func Adjust(tx *gorm.DB, q *models.Quote, dir Direction, actor string) error {
	for i := range q.Pieces {
		p := &q.Pieces[i]
		if p.MaterialID == nil || p.MaterialUnit != models.UnitArea {
			continue
		}
		area := pricing.PieceArea(p)
		if area <= 0 {
			continue
		}
		reason := fmt.Sprintf("quote %s piece %q", q.Code, p.Name)
		if err := adjustProduct(tx, *p.MaterialID, area, dir, reason, actor, true); err != nil {
			return err
		}
	}
	return nil
}

// adjustProduct moves one product's stock by qty under a row lock, then walks
// its bill of materials once. Components are consumed proportionally to area
// regardless of the parent's sufficiency check, which only gates the parent.
func adjustProduct(tx *gorm.DB, productID string, qty float64, dir Direction, reason, actor string, cascade bool) error {
	var product models.Product
	err := database.LockForUpdate(tx).Preload("Components").First(&product, "id = ?", productID).Error
	if err != nil {
		return &errs.DependencyError{Op: fmt.Sprintf("product %s lookup", productID), Err: err}
	}

	before := product.Stock
	var after float64
	if dir == Deduct {
		after = before - qty
		if after < 0 {
			// over-deduction is clamped, never allowed to go negative
			after = 0
		}
	} else {
		after = before + qty
	}
	after = utils.Round4(after)

	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Update("stock", after).Error; err != nil {
		return &errs.DependencyError{Op: fmt.Sprintf("product %s stock update", productID), Err: err}
	}

	movement := models.StockMovement{
		ProductID:   productID,
		ProductName: product.Name,
		StockBefore: before,
		StockAfter:  after,
		Delta:       utils.Round4(after - before),
		Reason:      reason,
		Actor:       actor,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return &errs.DependencyError{Op: "stock movement audit", Err: err}
	}

	if !cascade {
		return nil
	}
	for _, comp := range product.Components {
		consumed := utils.Round4(comp.QuantityPerUnit * qty)
		if consumed <= 0 {
			continue
		}
		compReason := fmt.Sprintf("%s (component of %s)", reason, product.Name)
		if err := adjustProduct(tx, comp.ComponentID, consumed, dir, compReason, actor, false); err != nil {
			return err
		}
	}
	return nil
}

// Check verifies, under row locks, that every area-priced material referenced
// by the quote has enough stock for its aggregated required area. The locks
// stay held until the surrounding transaction ends, so the answer remains
// true at commit time. No stock is mutated.
func Check(tx *gorm.DB, q *models.Quote) error {
	required := make(map[string]float64)
	for i := range q.Pieces {
		p := &q.Pieces[i]
		if p.MaterialID == nil || p.MaterialUnit != models.UnitArea {
			continue
		}
		required[*p.MaterialID] += pricing.PieceArea(p)
	}

	// Lock in a stable order so two finalizes sharing materials cannot
	// deadlock each other.
	ids := make([]string, 0, len(required))
	for productID := range required {
		ids = append(ids, productID)
	}
	sort.Strings(ids)

	for _, productID := range ids {
		var product models.Product
		err := database.LockForUpdate(tx).First(&product, "id = ?", productID).Error
		if err != nil {
			return &errs.DependencyError{Op: fmt.Sprintf("product %s lookup", productID), Err: err}
		}
		area := utils.Round4(required[productID])
		if product.Stock < area {
			return &errs.InsufficientStockError{
				ProductID:   productID,
				ProductName: product.Name,
				Required:    area,
				Available:   product.Stock,
			}
		}
	}
	return nil
}

// Package pricing derives areas and totals from a quote draft. Compute is a
// pure function of the draft and the service catalog; it is re-run on every
// mutation, so no cached total is ever correctness-critical.
package pricing

import (
	"log"

	"envelopamento-backend/models"
	"envelopamento-backend/utils"
)

// FallbackServiceName labels an applied service whose catalog entry vanished.
// Resolving to a label instead of failing keeps old drafts readable; the log
// line below flags the data-quality problem.
const FallbackServiceName = "(removed service)"

// Totals is the derived money breakdown of a draft. Monetary fields are
// rounded to 2 decimals, Area to 4.
type Totals struct {
	Area           float64 `json:"area"`
	MaterialCost   float64 `json:"material_cost"`
	ServiceCost    float64 `json:"service_cost"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	GrandTotal     float64 `json:"grand_total"`
}

// EffectiveQuantity treats an unset quantity as 1: a blank field on a fresh
// piece prices as a single unit.
func EffectiveQuantity(p *models.Piece) int {
	if p.Quantity < 1 {
		return 1
	}
	return p.Quantity
}

// PieceArea is height * width * quantity for a dimensioned piece, rounded to
// 4 decimals; unit-counted pieces have no area.
func PieceArea(p *models.Piece) float64 {
	if p.NoDimensions {
		return 0
	}
	return utils.Round4(p.Height * p.Width * float64(EffectiveQuantity(p)))
}

// EffectiveUnitPrice is the material's promotional price when a promotion is
// active on the snapshot, else the standard price.
func EffectiveUnitPrice(p *models.Piece) float64 {
	if p.MaterialPromoPrice != nil {
		return *p.MaterialPromoPrice
	}
	return p.MaterialUnitPrice
}

// Compute prices the draft against the catalog. Never negative: the discount
// is clamped so freight on top of it cannot drive the grand total below zero.
func Compute(q *models.Quote, catalog map[string]models.CatalogService) Totals {
	var t Totals

	for i := range q.Pieces {
		p := &q.Pieces[i]
		qty := EffectiveQuantity(p)
		area := PieceArea(p)
		t.Area += area

		if p.MaterialID != nil {
			price := EffectiveUnitPrice(p)
			if p.MaterialUnit == models.UnitCount {
				t.MaterialCost += price * float64(qty)
			} else {
				t.MaterialCost += price * area
			}
		}

		for id, as := range p.Services.Data() {
			if !as.Applied {
				continue
			}
			svc, ok := catalog[id]
			if !ok {
				name := as.Name
				if name == "" {
					name = FallbackServiceName
				}
				log.Printf("applied service %s (%s) on piece %q missing from catalog; priced at zero", id, name, p.Name)
				continue
			}
			if svc.Unit == models.UnitCount {
				t.ServiceCost += svc.UnitPrice * float64(qty)
			} else if !p.NoDimensions {
				// area-unit services contribute nothing on unit-counted pieces
				t.ServiceCost += svc.UnitPrice * area
			}
		}
	}

	t.Area = utils.Round4(t.Area)
	t.MaterialCost = utils.Round2(t.MaterialCost)
	t.ServiceCost = utils.Round2(t.ServiceCost)
	t.Subtotal = utils.Round2(t.MaterialCost + t.ServiceCost)

	if q.DiscountKind == models.DiscountFixed {
		t.DiscountAmount = utils.Round2(q.Discount)
	} else {
		t.DiscountAmount = utils.Round2(t.Subtotal * q.Discount / 100)
	}

	grand := t.Subtotal - t.DiscountAmount + q.Freight
	if grand < 0 {
		grand = 0
	}
	t.GrandTotal = utils.Round2(grand)
	return t
}

// Apply writes the computed totals back onto the quote's persisted fields.
func Apply(q *models.Quote, t Totals) {
	q.TotalArea = t.Area
	q.MaterialCost = t.MaterialCost
	q.ServiceCost = t.ServiceCost
	q.Subtotal = t.Subtotal
	q.DiscountAmount = t.DiscountAmount
	q.GrandTotal = t.GrandTotal
}

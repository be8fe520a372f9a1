package inventory

import (
	"errors"
	"fmt"
	"testing"

	"envelopamento-backend/errs"
	"envelopamento-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductComponent{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id string, stock float64, unit models.MeasureUnit) {
	t.Helper()
	p := models.Product{Id: id, Name: "product " + id, UnitPrice: 10, Unit: unit, Stock: stock, Active: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}

func stockOf(t *testing.T, db *gorm.DB, id string) float64 {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("load product %s: %v", id, err)
	}
	return p.Stock
}

func wrapQuote(materialID string, h, w float64, qty int) *models.Quote {
	return &models.Quote{
		Code: "ORC20260829-0001",
		Pieces: []models.Piece{{
			Name:         "hood",
			Height:       h,
			Width:        w,
			Quantity:     qty,
			MaterialID:   &materialID,
			MaterialUnit: models.UnitArea,
		}},
	}
}

func TestDeductCascadesIntoComponents(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "vinyl", 10, models.UnitArea)
	seedProduct(t, db, "laminate", 10, models.UnitArea)
	if err := db.Create(&models.ProductComponent{ProductID: "vinyl", ComponentID: "laminate", QuantityPerUnit: 0.5}).Error; err != nil {
		t.Fatalf("seed bom: %v", err)
	}

	q := wrapQuote("vinyl", 2, 1.5, 2) // area 6
	if err := Adjust(db, q, Deduct, "tester"); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	if got := stockOf(t, db, "vinyl"); got != 4 {
		t.Fatalf("vinyl stock = %v, want 4", got)
	}
	if got := stockOf(t, db, "laminate"); got != 7 { // 0.5 * 6 = 3 consumed
		t.Fatalf("laminate stock = %v, want 7", got)
	}

	var movements []models.StockMovement
	if err := db.Order("id").Find(&movements).Error; err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 stock movements, got %d", len(movements))
	}
	if movements[0].StockBefore != 10 || movements[0].StockAfter != 4 {
		t.Fatalf("parent movement before/after = %v/%v", movements[0].StockBefore, movements[0].StockAfter)
	}
	if movements[0].Reason == "" || movements[0].Actor != "tester" {
		t.Fatalf("movement missing attribution: %+v", movements[0])
	}
}

func TestDeductClampsAtZero(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "vinyl", 5, models.UnitArea)

	q := wrapQuote("vinyl", 2, 1.5, 2) // area 6 > stock 5
	if err := Adjust(db, q, Deduct, "tester"); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := stockOf(t, db, "vinyl"); got != 0 {
		t.Fatalf("vinyl stock = %v, want clamp at 0", got)
	}
}

func TestRestoreReversesDeduct(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "vinyl", 10, models.UnitArea)
	seedProduct(t, db, "laminate", 10, models.UnitArea)
	if err := db.Create(&models.ProductComponent{ProductID: "vinyl", ComponentID: "laminate", QuantityPerUnit: 0.5}).Error; err != nil {
		t.Fatalf("seed bom: %v", err)
	}

	q := wrapQuote("vinyl", 2, 1.5, 2)
	if err := Adjust(db, q, Deduct, "tester"); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if err := Adjust(db, q, Restore, "tester"); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if got := stockOf(t, db, "vinyl"); got != 10 {
		t.Fatalf("vinyl stock after round trip = %v, want 10", got)
	}
	if got := stockOf(t, db, "laminate"); got != 10 {
		t.Fatalf("laminate stock after round trip = %v, want 10", got)
	}
}

func TestUnitCountedMaterialsUntouched(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "emblem", 10, models.UnitCount)

	id := "emblem"
	q := &models.Quote{Pieces: []models.Piece{{
		Name: "badge", NoDimensions: true, Quantity: 3,
		MaterialID: &id, MaterialUnit: models.UnitCount,
	}}}
	if err := Adjust(db, q, Deduct, "tester"); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := stockOf(t, db, "emblem"); got != 10 {
		t.Fatalf("unit-counted stock changed to %v", got)
	}
}

func TestCheckRejectsShortfallWithoutMutation(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "vinyl", 5, models.UnitArea)

	q := wrapQuote("vinyl", 2, 1.5, 2) // requires 6
	err := Check(db, q)
	var shortfall *errs.InsufficientStockError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if shortfall.Required != 6 || shortfall.Available != 5 {
		t.Fatalf("shortfall detail = %+v", shortfall)
	}
	if shortfall.ProductID != "vinyl" {
		t.Fatalf("shortfall names product %q", shortfall.ProductID)
	}
	if got := stockOf(t, db, "vinyl"); got != 5 {
		t.Fatalf("check mutated stock to %v", got)
	}
}

func TestCheckAggregatesSharedMaterial(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "vinyl", 5, models.UnitArea)

	id := "vinyl"
	q := &models.Quote{Pieces: []models.Piece{
		{Name: "hood", Height: 2, Width: 1.5, Quantity: 1, MaterialID: &id, MaterialUnit: models.UnitArea},  // 3
		{Name: "roof", Height: 1.5, Width: 2, Quantity: 1, MaterialID: &id, MaterialUnit: models.UnitArea},  // 3
	}}
	err := Check(db, q)
	var shortfall *errs.InsufficientStockError
	if !errors.As(err, &shortfall) {
		t.Fatalf("expected aggregated shortfall, got %v", err)
	}
	if shortfall.Required != 6 {
		t.Fatalf("aggregated requirement = %v, want 6", shortfall.Required)
	}
}

func TestCheckVisitsMaterialsInStableOrder(t *testing.T) {
	db := setupTestDB(t, t.Name())
	seedProduct(t, db, "vinyl", 1, models.UnitArea)
	seedProduct(t, db, "laminate", 1, models.UnitArea)

	vinyl, laminate := "vinyl", "laminate"
	q := &models.Quote{Pieces: []models.Piece{
		{Name: "hood", Height: 2, Width: 1.5, Quantity: 1, MaterialID: &vinyl, MaterialUnit: models.UnitArea},
		{Name: "roof", Height: 2, Width: 1.5, Quantity: 1, MaterialID: &laminate, MaterialUnit: models.UnitArea},
	}}

	// Both are short; the id-ordered walk always reports the same one, so
	// concurrent checks also take their row locks in a single order.
	for i := 0; i < 10; i++ {
		err := Check(db, q)
		var shortfall *errs.InsufficientStockError
		if !errors.As(err, &shortfall) {
			t.Fatalf("expected shortfall, got %v", err)
		}
		if shortfall.ProductID != "laminate" {
			t.Fatalf("run %d reported %q, want the id-ordered first (laminate)", i, shortfall.ProductID)
		}
	}
}

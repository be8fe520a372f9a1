package controllers

import (
	"fmt"
	"os"
	"strconv"

	"envelopamento-backend/errs"
	"envelopamento-backend/middlewares"
	"envelopamento-backend/models"
	"envelopamento-backend/pricing"
	"envelopamento-backend/quotes"
	"envelopamento-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PieceInput struct {
	Name         string          `json:"name"`
	Height       float64         `json:"height" validate:"gte=0"`
	Width        float64         `json:"width" validate:"gte=0"`
	NoDimensions bool            `json:"no_dimensions"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	MaterialID   *string         `json:"material_id"`
	Services     map[string]bool `json:"services"` // service id -> applied
}

type QuoteInput struct {
	ID           uint         `json:"id"`
	DraftToken   string       `json:"draft_token"`
	CustomerID   *uint        `json:"customer_id"`
	EmployeeID   *uint        `json:"employee_id"`
	Discount     float64      `json:"discount" validate:"gte=0"`
	DiscountKind string       `json:"discount_kind" validate:"omitempty,oneof=percentage fixed"`
	Freight      float64      `json:"freight" validate:"gte=0"`
	Pieces       []PieceInput `json:"pieces" validate:"dive"`
}

type PaymentInput struct {
	Method         string  `json:"method" validate:"required,oneof=cash card deferred_credit"`
	Amount         float64 `json:"amount" validate:"gt=0"`
	BankAccountRef string  `json:"bank_account_ref"`
}

type FinalizeInput struct {
	Quote    QuoteInput     `json:"quote"`
	Payments []PaymentInput `json:"payments" validate:"required,min=1,dive"`
}

// codePrefix is the human-readable quote code prefix (e.g. ORC20260829-0001).
func codePrefix() string {
	if p := os.Getenv("QUOTE_CODE_PREFIX"); p != "" {
		return p
	}
	return "ORC"
}

// CreateDraft hands out a fresh draft shell with a provisional token. Nothing
// is persisted until the first save.
func CreateDraft(c *fiber.Ctx) error {
	draft := models.Quote{
		DraftToken:   uuid.NewString(),
		Status:       models.QuoteDraft,
		DiscountKind: models.DiscountPercentage,
	}
	return c.Status(fiber.StatusCreated).JSON(draft)
}

// SaveDraft upserts the draft, recomputing totals. Safe to call repeatedly:
// the provisional token (before the client learned the id) and the durable id
// both resolve to the same row.
func SaveDraft(c *fiber.Ctx) error {
	var input QuoteInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	tx := middlewares.DBFrom(c)
	quote, err := buildQuote(tx, &input)
	if err != nil {
		return err
	}
	if err := quotes.SaveDraft(tx, quote, codePrefix()); err != nil {
		return err
	}
	return c.JSON(quote)
}

type QuotePatch struct {
	CustomerID   *uint    `json:"customer_id"`
	EmployeeID   *uint    `json:"employee_id"`
	Discount     *float64 `json:"discount"`
	DiscountKind *string  `json:"discount_kind"`
	Freight      *float64 `json:"freight"`
}

// PatchQuote adjusts discount/freight/counterparty on a stored draft and
// recomputes its totals.
func PatchQuote(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid quote id")
	}

	var patch QuotePatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&patch)

	tx := middlewares.DBFrom(c)
	quote, err := loadQuote(tx, uint(id))
	if err != nil {
		return err
	}
	if quote.Status != models.QuoteDraft {
		return &errs.ValidationError{Message: "only drafts can be patched"}
	}

	if updates := utils.UpdatesFromPtrDTO(&patch, nil); len(updates) > 0 {
		if err := tx.Model(quote).Updates(updates).Error; err != nil {
			return &errs.DependencyError{Op: "quote patch", Err: err}
		}
		// reload so the recompute sees the patched fields
		if quote, err = loadQuote(tx, uint(id)); err != nil {
			return err
		}
	}
	if err := quotes.SaveDraft(tx, quote, codePrefix()); err != nil {
		return err
	}
	return c.JSON(quote)
}

func GetQuotes(c *fiber.Ctx) error {
	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	var list []models.Quote
	err := middlewares.DBFrom(c).
		Preload("Pieces").Preload("Payments").
		Order("id DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	if err != nil {
		return &errs.DependencyError{Op: "quote list", Err: err}
	}
	return c.JSON(list)
}

func GetQuote(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid quote id")
	}
	quote, err := loadQuote(middlewares.DBFrom(c), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(quote)
}

// FinalizeQuote commits a draft with its payment list. The draft may be a
// stored one (id set) or a never-saved one; either way the finalized quote
// leaves with a durable id and code.
func FinalizeQuote(c *fiber.Ctx) error {
	var input FinalizeInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input.Quote)

	tx := middlewares.DBFrom(c)
	quote, err := buildQuote(tx, &input.Quote)
	if err != nil {
		return err
	}

	payments := make([]models.Payment, 0, len(input.Payments))
	for i := range input.Payments {
		utils.NormalizeDTO(&input.Payments[i])
		payments = append(payments, models.Payment{
			Method:         input.Payments[i].Method,
			Amount:         input.Payments[i].Amount,
			BankAccountRef: input.Payments[i].BankAccountRef,
		})
	}

	if err := quotes.Finalize(tx, quote, payments, codePrefix(), middlewares.Actor(c)); err != nil {
		return err
	}
	return c.JSON(quote)
}

type TrashInput struct {
	Reason string `json:"reason"`
}

// DeleteQuote moves a quote to the trash archive, restocking inventory when
// it had been finalized.
func DeleteQuote(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid quote id")
	}

	var input TrashInput
	_ = c.BodyParser(&input) // reason is optional

	tx := middlewares.DBFrom(c)
	quote, err := loadQuote(tx, uint(id))
	if err != nil {
		return err
	}
	if err := quotes.MoveToTrash(tx, quote, input.Reason, middlewares.Actor(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("quote %s moved to trash", quote.Code)})
}

func GetTrashed(c *fiber.Ctx) error {
	var list []models.TrashedQuote
	err := middlewares.DBFrom(c).Order("id DESC").Find(&list).Error
	if err != nil {
		return &errs.DependencyError{Op: "trash list", Err: err}
	}
	return c.JSON(list)
}

// RestoreQuote brings an archived quote back in the exact shape it had.
func RestoreQuote(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid trash id")
	}
	quote, err := quotes.RestoreFromTrash(middlewares.DBFrom(c), uint(id), middlewares.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(quote)
}

func loadQuote(tx *gorm.DB, id uint) (*models.Quote, error) {
	var quote models.Quote
	err := tx.Preload("Pieces").Preload("Payments").First(&quote, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &errs.ValidationError{Message: fmt.Sprintf("quote %d not found", id)}
		}
		return nil, &errs.DependencyError{Op: "quote lookup", Err: err}
	}
	return &quote, nil
}

// buildQuote turns the wire DTO into the aggregate, snapshotting material and
// service names at save time. For a stored quote the durable identity and
// status come from the row, never from the client.
func buildQuote(tx *gorm.DB, input *QuoteInput) (*models.Quote, error) {
	quote := &models.Quote{
		ID:           input.ID,
		DraftToken:   input.DraftToken,
		CustomerID:   input.CustomerID,
		EmployeeID:   input.EmployeeID,
		Discount:     input.Discount,
		DiscountKind: models.DiscountKind(input.DiscountKind),
		Freight:      input.Freight,
	}
	if quote.DiscountKind == "" {
		quote.DiscountKind = models.DiscountPercentage
	}

	if input.ID != 0 {
		stored, err := loadQuote(tx, input.ID)
		if err != nil {
			return nil, err
		}
		quote.Code = stored.Code
		quote.Status = stored.Status
		quote.DraftToken = stored.DraftToken
		quote.CreatedAt = stored.CreatedAt
	}

	pieces, err := extractPieces(tx, input.Pieces)
	if err != nil {
		return nil, err
	}
	quote.Pieces = pieces
	return quote, nil
}

// extractPieces resolves material and service snapshots for each piece input.
func extractPieces(tx *gorm.DB, inputs []PieceInput) ([]models.Piece, error) {
	catalog, err := quotes.LoadCatalog(tx)
	if err != nil {
		return nil, err
	}

	var pieces []models.Piece
	for i, input := range inputs {
		piece := models.Piece{
			Name:         input.Name,
			Height:       input.Height,
			Width:        input.Width,
			NoDimensions: input.NoDimensions,
			Quantity:     input.Quantity,
		}

		if input.MaterialID != nil && *input.MaterialID != "" {
			var product models.Product
			if err := tx.First(&product, "id = ?", *input.MaterialID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, &errs.ValidationError{
						Message: fmt.Sprintf("material %s not found at piece index %d", *input.MaterialID, i),
					}
				}
				return nil, &errs.DependencyError{Op: "material lookup", Err: err}
			}
			piece.MaterialID = &product.Id
			piece.MaterialName = product.Name
			piece.MaterialUnit = product.Unit
			piece.MaterialUnitPrice = product.UnitPrice
			piece.MaterialPromoPrice = product.PromoPrice
		}

		if len(input.Services) > 0 {
			applied := make(map[string]models.AppliedService, len(input.Services))
			for serviceID, on := range input.Services {
				name := pricing.FallbackServiceName
				if svc, ok := catalog[serviceID]; ok {
					name = svc.Name
				}
				applied[serviceID] = models.AppliedService{Name: name, Applied: on}
			}
			piece.Services = datatypes.NewJSONType(applied)
		}

		pieces = append(pieces, piece)
	}
	return pieces, nil
}

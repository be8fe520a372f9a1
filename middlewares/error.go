package middlewares

import (
	"errors"
	"log"

	"envelopamento-backend/errs"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
// Engine errors carry structured detail (offending pieces, product and
// shortfall) so the client can render an actionable message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Payload validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			// fe.Field() is struct field name; you can map to json tag if you prefer
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Engine taxonomy
	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		body := fiber.Map{"message": validation.Message}
		if len(validation.Pieces) > 0 {
			body["pieces"] = validation.Pieces
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}
	var stock *errs.InsufficientStockError
	if errors.As(err, &stock) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":      stock.Error(),
			"product_id":   stock.ProductID,
			"product_name": stock.ProductName,
			"required":     stock.Required,
			"available":    stock.Available,
			"shortfall":    stock.Shortfall(),
		})
	}
	var conflict *errs.ConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": conflict.Message})
	}
	var dependency *errs.DependencyError
	if errors.As(err, &dependency) {
		log.Printf("dependency failure: %v", dependency)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": dependency.Error()})
	}

	// 4) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}

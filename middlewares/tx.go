package middlewares

import (
	"log"

	"envelopamento-backend/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequestTx opens a per-request DB transaction. Every mutating quote route
// runs inside it: finalize's persistence, stock deductions and ledger writes
// commit together or not at all.
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log.Printf("tx commit failed: %v", e)
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// Make the TX available to handlers via DBFrom(c).
		c.Locals("tx", tx)

		err = c.Next()
		return err
	}
}

// DBFrom returns the request transaction, falling back to the shared
// connection on routes that run without RequestTx.
func DBFrom(c *fiber.Ctx) *gorm.DB {
	if tx, ok := c.Locals("tx").(*gorm.DB); ok && tx != nil {
		return tx
	}
	return database.DB
}

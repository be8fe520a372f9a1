package routes

import (
	"github.com/gofiber/fiber/v2"

	"envelopamento-backend/controllers"
	"envelopamento-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Protected endpoints (JWT auth issued by the session subsystem)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits or rolls back as one unit)
	protected.Use(middlewares.RequestTx())

	// Catalog lookups (reference data, read-only here)
	protected.Get("/products", controllers.GetProducts)
	protected.Get("/product/:id", controllers.GetProduct)
	protected.Get("/services", controllers.GetServices)

	// Quotes (draft lifecycle + finalize)
	protected.Post("/quote", controllers.CreateDraft)
	protected.Put("/quote", controllers.SaveDraft)
	protected.Patch("/quote/:id", controllers.PatchQuote)
	protected.Get("/quotes", controllers.GetQuotes)
	protected.Get("/quote/:id", controllers.GetQuote)
	protected.Post("/quotes/finalize", controllers.FinalizeQuote)
	protected.Delete("/quote/:id", controllers.DeleteQuote)

	// Trash archive
	protected.Get("/trash", controllers.GetTrashed)
	protected.Post("/trash/:id/restore", controllers.RestoreQuote)
}

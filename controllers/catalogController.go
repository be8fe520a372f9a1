package controllers

import (
	"fmt"

	"envelopamento-backend/errs"
	"envelopamento-backend/middlewares"
	"envelopamento-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Catalog CRUD lives in another subsystem; these read-only lookups are the
// interface the quote UI consumes when assembling a draft.

func GetProducts(c *fiber.Ctx) error {
	var products []models.Product
	err := middlewares.DBFrom(c).Preload("Components").Order("name").Find(&products).Error
	if err != nil {
		return &errs.DependencyError{Op: "product list", Err: err}
	}
	return c.JSON(products)
}

func GetProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var product models.Product
	err := middlewares.DBFrom(c).Preload("Components").First(&product, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("product %s not found", id))
		}
		return &errs.DependencyError{Op: "product lookup", Err: err}
	}
	return c.JSON(product)
}

func GetServices(c *fiber.Ctx) error {
	var services []models.CatalogService
	err := middlewares.DBFrom(c).Order("category, name").Find(&services).Error
	if err != nil {
		return &errs.DependencyError{Op: "service catalog", Err: err}
	}
	return c.JSON(services)
}

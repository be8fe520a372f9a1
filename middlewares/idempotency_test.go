package middlewares

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"envelopamento-backend/database"
	"envelopamento-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.IdempotencyKey{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func idempotencyApp(calls *int) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", "u1")
		return c.Next()
	})
	app.Use(Idempotency())
	app.Post("/quote", func(c *fiber.Ctx) error {
		*calls++
		return c.JSON(fiber.Map{"call": *calls})
	})
	return app
}

func postWithKey(t *testing.T, app *fiber.App, key, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/quote", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", key)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp.StatusCode, string(raw)
}

func TestIdempotencyReplaysWithoutRerunningHandler(t *testing.T) {
	database.DB = setupTestDB(t, t.Name())

	calls := 0
	app := idempotencyApp(&calls)

	status1, body1 := postWithKey(t, app, "key-1", `{"n":1}`)
	status2, body2 := postWithKey(t, app, "key-1", `{"n":1}`)

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if status1 != status2 || body1 != body2 {
		t.Fatalf("replay diverged: first %d %q, second %d %q", status1, body1, status2, body2)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentRequest(t *testing.T) {
	database.DB = setupTestDB(t, t.Name())

	calls := 0
	app := idempotencyApp(&calls)

	postWithKey(t, app, "key-2", `{"n":1}`)
	status, _ := postWithKey(t, app, "key-2", `{"n":2}`)

	if status != fiber.StatusConflict {
		t.Fatalf("key reuse with different body returned %d, want %d", status, fiber.StatusConflict)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

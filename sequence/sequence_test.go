package sequence

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

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
	if err := db.AutoMigrate(&models.QuoteCounter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNextCodeFormat(t *testing.T) {
	db := setupTestDB(t, t.Name())

	code, err := NextCode(db, "ORC")
	if err != nil {
		t.Fatalf("next code: %v", err)
	}
	if ok, _ := regexp.MatchString(`^ORC\d{8}-0001$`, code); !ok {
		t.Fatalf("unexpected code %q", code)
	}

	code, err = NextCode(db, "ORC")
	if err != nil {
		t.Fatalf("next code: %v", err)
	}
	if ok, _ := regexp.MatchString(`^ORC\d{8}-0002$`, code); !ok {
		t.Fatalf("unexpected second code %q", code)
	}
}

func TestNextCodeRecoversCorruptCounter(t *testing.T) {
	db := setupTestDB(t, t.Name())
	if err := db.Create(&models.QuoteCounter{Name: "quote_code", Value: "banana"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	code, err := NextCode(db, "ORC")
	if err != nil {
		t.Fatalf("next code: %v", err)
	}
	// fallback shape: prefix + unix millis, no date-dash segment
	if ok, _ := regexp.MatchString(`^ORC\d{13}$`, code); !ok {
		t.Fatalf("expected millis fallback, got %q", code)
	}

	var row models.QuoteCounter
	if err := db.First(&row, "name = ?", "quote_code").Error; err != nil {
		t.Fatalf("counter reload: %v", err)
	}
	if row.Value != "1" {
		t.Fatalf("counter not re-seeded, value %q", row.Value)
	}

	// the stream continues normally after recovery
	code, err = NextCode(db, "ORC")
	if err != nil {
		t.Fatalf("next code after recovery: %v", err)
	}
	if ok, _ := regexp.MatchString(`^ORC\d{8}-0002$`, code); !ok {
		t.Fatalf("unexpected post-recovery code %q", code)
	}
}

func TestNextCodeConcurrentCallsAreUnique(t *testing.T) {
	db := setupTestDB(t, t.Name())

	const callers = 20
	var wg sync.WaitGroup
	codes := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := NextCode(db, "ORC")
			if err != nil {
				t.Errorf("next code: %v", err)
				return
			}
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		if seen[code] {
			t.Fatalf("duplicate code issued: %s", code)
		}
		seen[code] = true
	}
	if len(seen) != callers {
		t.Fatalf("expected %d unique codes, got %d", callers, len(seen))
	}
}

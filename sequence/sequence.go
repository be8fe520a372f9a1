// Package sequence issues human-readable, date-scoped quote codes from a
// durable serialized counter.
package sequence

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"envelopamento-backend/database"
	"envelopamento-backend/errs"
	"envelopamento-backend/models"

	"gorm.io/gorm"
)

const counterName = "quote_code"

// mu serializes in-process callers; across instances the row lock taken by
// NextCode is the real guard. Both together make lost updates impossible.
var mu sync.Mutex

// NextCode increments the durable quote counter and formats
// {prefix}{YYYYMMDD}-{counter:04d}. A corrupt (non-numeric) stored value is
// recovered locally: the counter is re-seeded and this call falls back to a
// {prefix}{unix_millis} code instead of emitting a malformed one.
func NextCode(tx *gorm.DB, prefix string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	var row models.QuoteCounter
	err := database.LockForUpdate(tx).Where("name = ?", counterName).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.QuoteCounter{Name: counterName, Value: "0"}
		if err := tx.Create(&row).Error; err != nil {
			return "", &errs.ConflictError{Message: "quote counter initialization raced, retry"}
		}
	} else if err != nil {
		return "", &errs.DependencyError{Op: "quote counter load", Err: err}
	}

	n, perr := strconv.ParseInt(strings.TrimSpace(row.Value), 10, 64)
	if perr != nil || n < 0 {
		log.Printf("quote counter corrupt (%q); re-seeding and issuing millis code", row.Value)
		if err := persist(tx, "1"); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixMilli()), nil
	}

	n++
	if err := persist(tx, strconv.FormatInt(n, 10)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s-%04d", prefix, time.Now().Format("20060102"), n), nil
}

func persist(tx *gorm.DB, value string) error {
	res := tx.Model(&models.QuoteCounter{}).Where("name = ?", counterName).Update("value", value)
	if res.Error != nil {
		return &errs.DependencyError{Op: "quote counter persist", Err: res.Error}
	}
	return nil
}

// Package quotes owns the quote lifecycle: Draft -> Finalized -> Trashed,
// with restore back from trash. All operations run inside the caller's
// transaction so finalize (persistence + stock + ledger) is one atomic unit.
package quotes

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"envelopamento-backend/errs"
	"envelopamento-backend/inventory"
	"envelopamento-backend/ledger"
	"envelopamento-backend/models"
	"envelopamento-backend/pricing"
	"envelopamento-backend/sequence"

	"gorm.io/gorm"
)

// LoadCatalog fetches the full service catalog keyed by service id, the shape
// pricing.Compute consumes.
func LoadCatalog(tx *gorm.DB) (map[string]models.CatalogService, error) {
	var services []models.CatalogService
	if err := tx.Find(&services).Error; err != nil {
		return nil, &errs.DependencyError{Op: "service catalog", Err: err}
	}
	catalog := make(map[string]models.CatalogService, len(services))
	for _, svc := range services {
		catalog[svc.Id] = svc
	}
	return catalog, nil
}

// SaveDraft recomputes totals and upserts the draft. The first save assigns
// a durable id and a sequential code; repeat saves of the same draft (same
// id, or same provisional token before the client learned the id) hit the
// same row.
func SaveDraft(tx *gorm.DB, q *models.Quote, codePrefix string) error {
	if q.Status == "" {
		q.Status = models.QuoteDraft
	}
	if q.Status != models.QuoteDraft {
		return &errs.ValidationError{Message: fmt.Sprintf("cannot save a %s quote as draft", q.Status)}
	}
	if err := resolveCounterparty(tx, q); err != nil {
		return err
	}

	catalog, err := LoadCatalog(tx)
	if err != nil {
		return err
	}
	pricing.Apply(q, pricing.Compute(q, catalog))

	if err := ensureIdentity(tx, q, codePrefix); err != nil {
		return err
	}
	return persist(tx, q)
}

// Finalize commits the quote: validates completeness, checks stock against
// the authoritative levels under row locks, persists the finalized state,
// deducts inventory and emits the financial records. Any error aborts the
// whole transaction; a quote is never marked finalized without its effects.
func Finalize(tx *gorm.DB, q *models.Quote, payments []models.Payment, codePrefix, actor string) error {
	switch q.Status {
	case models.QuoteFinalized:
		return &errs.ValidationError{Message: "quote is already finalized"}
	case models.QuoteTrashed:
		return &errs.ValidationError{Message: "cannot finalize a trashed quote"}
	}

	if q.CustomerID == nil && q.EmployeeID == nil {
		return &errs.ValidationError{Message: "customer is not set"}
	}
	if err := resolveCounterparty(tx, q); err != nil {
		return err
	}
	if err := validatePieces(q); err != nil {
		return err
	}
	if len(payments) == 0 {
		return &errs.ValidationError{Message: "at least one payment is required"}
	}

	catalog, err := LoadCatalog(tx)
	if err != nil {
		return err
	}
	pricing.Apply(q, pricing.Compute(q, catalog))

	// Resolve identity before touching stock: a token pointing at a row
	// that already left draft must be rejected from the stored status,
	// not trusted from the client struct.
	if err := ensureIdentity(tx, q, codePrefix); err != nil {
		return err
	}

	// Locks stay held until commit, so sufficiency observed here still holds
	// when the deduction lands.
	if err := inventory.Check(tx, q); err != nil {
		return err
	}

	now := time.Now().UTC()
	q.Status = models.QuoteFinalized
	q.FinalizedAt = &now
	q.Payments = payments
	if err := persist(tx, q); err != nil {
		return err
	}

	if err := inventory.Adjust(tx, q, inventory.Deduct, actor); err != nil {
		return err
	}
	return ledger.EmitForQuote(tx, q)
}

// MoveToTrash archives the quote payload with the reason and actor, restocks
// inventory when the quote had been finalized, and removes the live rows.
func MoveToTrash(tx *gorm.DB, q *models.Quote, reason, actor string) error {
	if q.ID == 0 {
		return &errs.ValidationError{Message: "only persisted quotes can be trashed"}
	}

	wasFinalized := q.Status == models.QuoteFinalized
	if wasFinalized {
		if err := inventory.Adjust(tx, q, inventory.Restore, actor); err != nil {
			return err
		}
	}

	// The payload keeps the pre-trash status so a restore returns the quote
	// in exactly the shape it had.
	payload, err := json.Marshal(q)
	if err != nil {
		return &errs.DependencyError{Op: "trash payload encoding", Err: err}
	}
	archived := models.TrashedQuote{
		QuoteID:      q.ID,
		QuoteCode:    q.Code,
		Payload:      payload,
		Reason:       reason,
		Actor:        actor,
		WasFinalized: wasFinalized,
	}
	if err := tx.Create(&archived).Error; err != nil {
		return &errs.DependencyError{Op: "trash archive sink", Err: err}
	}

	if err := deleteRows(tx, q.ID); err != nil {
		return err
	}
	q.Status = models.QuoteTrashed
	return nil
}

// RestoreFromTrash re-inserts an archived quote unchanged. A quote archived
// as finalized gets its stock re-deducted, keeping trash/restore a clean
// inventory round trip.
func RestoreFromTrash(tx *gorm.DB, trashedID uint, actor string) (*models.Quote, error) {
	var archived models.TrashedQuote
	if err := tx.First(&archived, trashedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.ValidationError{Message: fmt.Sprintf("trash record %d not found", trashedID)}
		}
		return nil, &errs.DependencyError{Op: "trash archive lookup", Err: err}
	}

	var q models.Quote
	if err := json.Unmarshal(archived.Payload, &q); err != nil {
		return nil, &errs.DependencyError{Op: "trash payload decoding", Err: err}
	}

	if err := tx.Create(&q).Error; err != nil {
		return nil, &errs.DependencyError{Op: "quote restore", Err: err}
	}
	if archived.WasFinalized {
		if err := inventory.Adjust(tx, &q, inventory.Deduct, actor); err != nil {
			return nil, err
		}
	}
	if err := tx.Delete(&models.TrashedQuote{}, archived.ID).Error; err != nil {
		return nil, &errs.DependencyError{Op: "trash archive cleanup", Err: err}
	}
	return &q, nil
}

// deleteRows removes the live aggregate after it was archived.
func deleteRows(tx *gorm.DB, quoteID uint) error {
	if err := tx.Where("quote_id = ?", quoteID).Delete(&models.Piece{}).Error; err != nil {
		return &errs.DependencyError{Op: "piece delete", Err: err}
	}
	if err := tx.Where("quote_id = ?", quoteID).Delete(&models.Payment{}).Error; err != nil {
		return &errs.DependencyError{Op: "payment delete", Err: err}
	}
	if err := tx.Delete(&models.Quote{}, quoteID).Error; err != nil {
		return &errs.DependencyError{Op: "quote delete", Err: err}
	}
	return nil
}

// resolveCounterparty snapshots the customer or employee display fields onto
// the quote. Both set at once is rejected; drafts with neither pass (the
// customer requirement only bites at finalize).
func resolveCounterparty(tx *gorm.DB, q *models.Quote) error {
	if q.CustomerID != nil && q.EmployeeID != nil {
		return &errs.ValidationError{Message: "quote cannot reference both a customer and an employee"}
	}
	if q.CustomerID != nil {
		var customer models.Customer
		if err := tx.First(&customer, *q.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &errs.ValidationError{Message: fmt.Sprintf("customer %d not found", *q.CustomerID)}
			}
			return &errs.DependencyError{Op: "customer lookup", Err: err}
		}
		q.CustomerName = customer.Name
		q.CustomerTaxID = customer.TaxID
	}
	if q.EmployeeID != nil {
		var employee models.Employee
		if err := tx.First(&employee, *q.EmployeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &errs.ValidationError{Message: fmt.Sprintf("employee %d not found", *q.EmployeeID)}
			}
			return &errs.DependencyError{Op: "employee lookup", Err: err}
		}
		q.CustomerName = employee.Name
		q.CustomerTaxID = employee.TaxID
	}
	return nil
}

func validatePieces(q *models.Quote) error {
	if len(q.Pieces) == 0 {
		return &errs.ValidationError{Message: "quote has no pieces"}
	}
	var malformed, unresolved []string
	for i := range q.Pieces {
		p := &q.Pieces[i]
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("piece %d", i+1)
		}
		if !p.NoDimensions && (p.Height <= 0 || p.Width <= 0) {
			malformed = append(malformed, name)
			continue
		}
		if p.Quantity < 0 {
			malformed = append(malformed, name)
			continue
		}
		if p.MaterialID == nil && !p.HasAppliedService() {
			unresolved = append(unresolved, name)
		}
	}
	if len(malformed) > 0 {
		return &errs.ValidationError{Message: "pieces have malformed dimensions or quantity", Pieces: malformed}
	}
	if len(unresolved) > 0 {
		return &errs.ValidationError{Message: "pieces need a material or an applied service", Pieces: unresolved}
	}
	return nil
}

// ensureIdentity assigns a durable id and sequential code on first persist.
// A draft still carrying only its provisional token re-resolves to the row
// that token already created, keeping repeat saves idempotent. The stored
// status is authoritative: a token that resolves to a row no longer in
// draft is rejected here, so a retried finalize cannot slip past the
// status guard with a fresh client struct.
func ensureIdentity(tx *gorm.DB, q *models.Quote, codePrefix string) error {
	if q.ID == 0 && q.DraftToken != "" {
		var existing models.Quote
		err := tx.Select("id", "code", "status", "created_at").Where("draft_token = ?", q.DraftToken).First(&existing).Error
		if err == nil {
			if existing.Status != models.QuoteDraft {
				return &errs.ValidationError{Message: fmt.Sprintf("quote %s is already %s", existing.Code, existing.Status)}
			}
			q.ID = existing.ID
			q.Code = existing.Code
			q.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return &errs.DependencyError{Op: "draft token lookup", Err: err}
		}
	}
	if q.ID == 0 && q.Code == "" {
		code, err := sequence.NextCode(tx, codePrefix)
		if err != nil {
			return err
		}
		q.Code = code
	}
	return nil
}

// persist writes the aggregate. Children are replaced wholesale: pieces and
// payments are small per quote and the draft is the source of truth.
func persist(tx *gorm.DB, q *models.Quote) error {
	if q.ID == 0 {
		if err := tx.Create(q).Error; err != nil {
			return &errs.DependencyError{Op: "quote create", Err: err}
		}
		return nil
	}

	if err := tx.Where("quote_id = ?", q.ID).Delete(&models.Piece{}).Error; err != nil {
		return &errs.DependencyError{Op: "piece replace", Err: err}
	}
	if err := tx.Where("quote_id = ?", q.ID).Delete(&models.Payment{}).Error; err != nil {
		return &errs.DependencyError{Op: "payment replace", Err: err}
	}

	pieces, payments := q.Pieces, q.Payments
	q.Pieces, q.Payments = nil, nil
	err := tx.Save(q).Error
	q.Pieces, q.Payments = pieces, payments
	if err != nil {
		return &errs.DependencyError{Op: "quote update", Err: err}
	}

	for i := range q.Pieces {
		q.Pieces[i].ID = 0
		q.Pieces[i].QuoteID = q.ID
	}
	if len(q.Pieces) > 0 {
		if err := tx.Create(&q.Pieces).Error; err != nil {
			return &errs.DependencyError{Op: "piece create", Err: err}
		}
	}
	for i := range q.Payments {
		q.Payments[i].ID = 0
		q.Payments[i].QuoteID = q.ID
	}
	if len(q.Payments) > 0 {
		if err := tx.Create(&q.Payments).Error; err != nil {
			return &errs.DependencyError{Op: "payment create", Err: err}
		}
	}
	return nil
}

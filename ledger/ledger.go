// Package ledger mirrors a finalized quote's payments into the financial
// side: one receivable-eligible record plus one cash-flow line per payment,
// and internal-consumption rows for deferred-credit employee purchases.
package ledger

import (
	"fmt"

	"envelopamento-backend/errs"
	"envelopamento-backend/models"

	"gorm.io/gorm"
)

// CategoryWrapService is the cash-flow category all quote inflows land in.
const CategoryWrapService = "wrap service"

// EmitForQuote writes the financial side effects of a finalize inside the
// caller's transaction. Internal consumption is recorded only for an
// employee pseudo-customer paying via deferred credit; an employee paying
// cash or card leaves no consumption trace.
func EmitForQuote(tx *gorm.DB, q *models.Quote) error {
	for i := range q.Payments {
		pay := &q.Payments[i]

		receivable := models.Receivable{
			OriginType:       models.OriginQuote,
			OriginID:         q.ID,
			QuoteCode:        q.Code,
			CustomerID:       q.CustomerID,
			EmployeeID:       q.EmployeeID,
			CounterpartyName: q.CustomerName,
			Amount:           pay.Amount,
			Method:           pay.Method,
			BankAccountRef:   pay.BankAccountRef,
		}
		if err := tx.Create(&receivable).Error; err != nil {
			return &errs.DependencyError{Op: "receivable sink", Err: err}
		}

		entry := models.LedgerEntry{
			Type:        models.LedgerInflow,
			Category:    CategoryWrapService,
			Amount:      pay.Amount,
			Description: fmt.Sprintf("quote %s paid via %s", q.Code, pay.Method),
			OriginType:  models.OriginQuote,
			OriginID:    q.ID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return &errs.DependencyError{Op: "ledger sink", Err: err}
		}

		if q.EmployeeID != nil && pay.Method == models.PaymentDeferredCredit {
			consumption := models.InternalConsumption{
				EmployeeID: *q.EmployeeID,
				QuoteID:    q.ID,
				QuoteCode:  q.Code,
				Amount:     pay.Amount,
			}
			if err := tx.Create(&consumption).Error; err != nil {
				return &errs.DependencyError{Op: "internal consumption sink", Err: err}
			}
		}
	}
	return nil
}

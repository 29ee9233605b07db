// internal/report/derive.go
package report

import (
	"github.com/spendlens/spendlens/internal/domain"
)

// Annotate computes the derived spend metrics for each record:
// unreceipted = PO value - receipted, uninvoiced = receipted - invoiced.
// A derived value is nil whenever either operand is nil; arithmetic on
// missing values never errors.
func Annotate(records []domain.Record) []domain.DerivedRecord {
	out := make([]domain.DerivedRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.DerivedRecord{
			Record:           rec,
			UnreceiptedValue: subtract(rec.PurchaseOrderValue, rec.ReceiptedValue),
			UninvoicedValue:  subtract(rec.ReceiptedValue, rec.InvoicedValue),
		})
	}
	return out
}

func subtract(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

package report

import (
	"time"

	"github.com/spendlens/spendlens/internal/domain"
)

func fv(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(supplier, costCenter, date string, po, receipted, invoiced *float64) domain.Record {
	r := domain.Record{
		Supplier:           supplier,
		CostCenterCode:     costCenter,
		PONumber:           "PO-" + supplier + "-" + date,
		PurchaseOrderValue: po,
		ReceiptedValue:     receipted,
		InvoicedValue:      invoiced,
	}
	if date != "" {
		r.ReportDate = day(date)
		r.ReportDateValid = true
	}
	return r
}

func fullRange() domain.DateRange {
	return domain.DateRange{Start: day("2000-01-01"), End: day("2100-01-01")}
}

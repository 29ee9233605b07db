// internal/report/aggregate.go
package report

import (
	"sort"
	"time"

	"github.com/spendlens/spendlens/internal/domain"
)

// Summarize returns the global totals over the subset: one row of
// null-skipping sums for the five monetary columns.
func Summarize(records []domain.DerivedRecord) domain.SummaryKPIs {
	summary := domain.SummaryKPIs{RecordCount: len(records)}
	for _, rec := range records {
		addTotals(&summary.Totals, rec)
	}
	return summary
}

// SupplierRollup groups the subset by supplier and sums the five
// monetary columns per group. Rows are ordered by PurchaseOrderValue
// descending; ties keep first-seen supplier order.
func SupplierRollup(records []domain.DerivedRecord) []domain.SupplierRollupRow {
	index := make(map[string]int)
	var rows []domain.SupplierRollupRow

	for _, rec := range records {
		i, ok := index[rec.Supplier]
		if !ok {
			i = len(rows)
			index[rec.Supplier] = i
			rows = append(rows, domain.SupplierRollupRow{Supplier: rec.Supplier})
		}
		addTotals(&rows[i].Totals, rec)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PurchaseOrderValue > rows[j].PurchaseOrderValue
	})

	return rows
}

// TrendBySupplier sums PO value per (report date, supplier) bucket,
// ordered by date ascending and supplier ascending within a date.
func TrendBySupplier(records []domain.DerivedRecord) []domain.TrendPoint {
	return trend(records, func(rec domain.DerivedRecord) string { return rec.Supplier })
}

// TrendByCostCenter sums PO value per (report date, cost center)
// bucket, ordered like TrendBySupplier.
func TrendByCostCenter(records []domain.DerivedRecord) []domain.TrendPoint {
	return trend(records, func(rec domain.DerivedRecord) string { return rec.CostCenterCode })
}

func trend(records []domain.DerivedRecord, keyOf func(domain.DerivedRecord) string) []domain.TrendPoint {
	type bucket struct {
		date time.Time
		key  string
	}

	index := make(map[bucket]int)
	var points []domain.TrendPoint

	for _, rec := range records {
		b := bucket{date: rec.ReportDate, key: keyOf(rec)}
		i, ok := index[b]
		if !ok {
			i = len(points)
			index[b] = i
			points = append(points, domain.TrendPoint{ReportDate: b.date, Key: b.key})
		}
		if rec.PurchaseOrderValue != nil {
			points[i].PurchaseOrderValue += *rec.PurchaseOrderValue
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if !points[i].ReportDate.Equal(points[j].ReportDate) {
			return points[i].ReportDate.Before(points[j].ReportDate)
		}
		return points[i].Key < points[j].Key
	})

	return points
}

// TopSuppliers returns the n suppliers with the largest summed PO
// value, ties broken by first-seen order. Fewer than n rows come back
// when the subset has fewer distinct suppliers.
func TopSuppliers(records []domain.DerivedRecord, n int) []domain.RankedGroup {
	return topN(records, n, func(rec domain.DerivedRecord) string { return rec.Supplier })
}

// TopCostCenters is TopSuppliers grouped by cost center code.
func TopCostCenters(records []domain.DerivedRecord, n int) []domain.RankedGroup {
	return topN(records, n, func(rec domain.DerivedRecord) string { return rec.CostCenterCode })
}

func topN(records []domain.DerivedRecord, n int, keyOf func(domain.DerivedRecord) string) []domain.RankedGroup {
	if n <= 0 {
		return nil
	}

	index := make(map[string]int)
	var groups []domain.RankedGroup

	for _, rec := range records {
		key := keyOf(rec)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.RankedGroup{Key: key})
		}
		if rec.PurchaseOrderValue != nil {
			groups[i].PurchaseOrderValue += *rec.PurchaseOrderValue
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].PurchaseOrderValue > groups[j].PurchaseOrderValue
	})

	if len(groups) > n {
		groups = groups[:n]
	}

	return groups
}

func addTotals(t *domain.Totals, rec domain.DerivedRecord) {
	if rec.PurchaseOrderValue != nil {
		t.PurchaseOrderValue += *rec.PurchaseOrderValue
	}
	if rec.ReceiptedValue != nil {
		t.ReceiptedValue += *rec.ReceiptedValue
	}
	if rec.InvoicedValue != nil {
		t.InvoicedValue += *rec.InvoicedValue
	}
	if rec.UnreceiptedValue != nil {
		t.UnreceiptedValue += *rec.UnreceiptedValue
	}
	if rec.UninvoicedValue != nil {
		t.UninvoicedValue += *rec.UninvoicedValue
	}
}

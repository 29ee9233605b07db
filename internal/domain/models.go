// internal/domain/models.go
package domain

import "time"

// Record represents a single normalized purchase-order line.
// Monetary fields are nil when the source value could not be coerced
// to a number; records are never dropped for that reason.
type Record struct {
	Supplier           string    `json:"supplier"`
	CostCenterCode     string    `json:"cost_center_code"`
	PONumber           string    `json:"po_number"`
	Description        string    `json:"description"`
	ItemDescription    string    `json:"item_description"`
	ReportDate         time.Time `json:"report_date"`
	ReportDateValid    bool      `json:"report_date_valid"`
	PurchaseOrderValue *float64  `json:"purchase_order_value"`
	ReceiptedValue     *float64  `json:"receipted_value"`
	InvoicedValue      *float64  `json:"invoiced_value"`
}

// DerivedRecord extends Record with the two computed spend metrics.
// Both are nil if either operand is nil.
type DerivedRecord struct {
	Record
	UnreceiptedValue *float64 `json:"unreceipted_value"`
	UninvoicedValue  *float64 `json:"uninvoiced_value"`
}

// DateRange is an inclusive date interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// FilterCriteria describes a report selection. An empty Suppliers or
// CostCenters slice imposes no restriction on that dimension: deselecting
// everything shows everything, not nothing. Callers rely on this.
type FilterCriteria struct {
	DateRange   DateRange `json:"date_range"`
	Suppliers   []string  `json:"suppliers"`
	CostCenters []string  `json:"cost_centers"`
}

// Totals holds the five null-skipping monetary sums shared by every
// aggregate shape. A group whose values are all nil sums to 0.
type Totals struct {
	PurchaseOrderValue float64 `json:"purchase_order_value"`
	ReceiptedValue     float64 `json:"receipted_value"`
	InvoicedValue      float64 `json:"invoiced_value"`
	UnreceiptedValue   float64 `json:"unreceipted_value"`
	UninvoicedValue    float64 `json:"uninvoiced_value"`
}

// SummaryKPIs is the single-row global total over a filtered subset.
type SummaryKPIs struct {
	Totals
	RecordCount int `json:"record_count"`
}

// SupplierRollupRow is one supplier's totals, ordered by
// PurchaseOrderValue descending in the rollup table.
type SupplierRollupRow struct {
	Supplier string `json:"supplier"`
	Totals
}

// TrendPoint is one (date, secondary dimension) bucket of summed PO
// value, used to drive a multi-series line chart.
type TrendPoint struct {
	ReportDate         time.Time `json:"report_date"`
	Key                string    `json:"key"`
	PurchaseOrderValue float64   `json:"purchase_order_value"`
}

// RankedGroup is one entry of a top-N ranking by summed PO value.
type RankedGroup struct {
	Key                string  `json:"key"`
	PurchaseOrderValue float64 `json:"purchase_order_value"`
}

// Report bundles the aggregate views rendered by the dashboard.
type Report struct {
	Summary         SummaryKPIs         `json:"summary"`
	SupplierRollup  []SupplierRollupRow `json:"supplier_rollup"`
	SupplierTrend   []TrendPoint        `json:"supplier_trend"`
	CostCenterTrend []TrendPoint        `json:"cost_center_trend"`
	TopSuppliers    []RankedGroup       `json:"top_suppliers"`
	TopCostCenters  []RankedGroup       `json:"top_cost_centers"`
	FilteredRecords int                 `json:"filtered_records"`
}

// FilterOptions lists the selectable dimension values of a dataset so a
// client can build a FilterCriteria.
type FilterOptions struct {
	Suppliers   []string  `json:"suppliers"`
	CostCenters []string  `json:"cost_centers"`
	MinDate     time.Time `json:"min_date"`
	MaxDate     time.Time `json:"max_date"`
}

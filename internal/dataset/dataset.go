// internal/dataset/dataset.go
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/domain"
)

// Column names the normalizer requires in an uploaded dataset.
const (
	ColSupplier           = "Supplier"
	ColCostCenterCode     = "Cost Center Code"
	ColPurchaseOrderValue = "Purchase Order Value"
	ColReceiptedValue     = "Receipted Value"
	ColInvoicedValue      = "Invoiced Value"
	ColReportDate         = "Report Date"
	ColPONumber           = "PO Number"
	ColDescription        = "Description"
	ColItemDescription    = "Item Description"
)

// Column names for the derived metrics. These never appear in uploads;
// exports append them after the required columns.
const (
	ColUnreceiptedValue = "Unreceipted Value"
	ColUninvoicedValue  = "Uninvoiced Value"
)

// RequiredColumns is the fixed schema an uploaded dataset must carry.
var RequiredColumns = []string{
	ColSupplier,
	ColCostCenterCode,
	ColPurchaseOrderValue,
	ColReceiptedValue,
	ColInvoicedValue,
	ColReportDate,
	ColPONumber,
	ColDescription,
	ColItemDescription,
}

// Row is one decoded tabular row, keyed by column name. Values are the
// raw decoded strings; coercion happens in Normalize.
type Row map[string]string

// Dataset is a decoded tabular dataset as supplied by a loader
// collaborator. The core never touches raw bytes or file formats.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// SchemaError reports required columns absent from an uploaded dataset.
// It is fatal to the request: no filtering or aggregation may run.
type SchemaError struct {
	MissingColumns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingColumns, ", "))
}

// Stats counts the irregularities tolerated during normalization.
// Coerced monetary values and invalid dates degrade to nil/excluded
// rather than failing the dataset.
type Stats struct {
	Rows          int `json:"rows"`
	CoercedValues int `json:"coerced_values"`
	InvalidDates  int `json:"invalid_dates"`
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
}

// Normalize validates the dataset schema and coerces every row into a
// typed Record. Missing required columns fail the whole dataset with a
// *SchemaError. Monetary values that do not parse become nil and dates
// that do not parse mark the record invalid for date-bounded
// operations; neither drops the row.
func Normalize(ds *Dataset) ([]domain.Record, Stats, error) {
	if missing := missingColumns(ds.Columns); len(missing) > 0 {
		return nil, Stats{}, &SchemaError{MissingColumns: missing}
	}

	records := make([]domain.Record, 0, len(ds.Rows))
	stats := Stats{Rows: len(ds.Rows)}

	for _, row := range ds.Rows {
		rec := domain.Record{
			Supplier:        strings.TrimSpace(row[ColSupplier]),
			CostCenterCode:  strings.TrimSpace(row[ColCostCenterCode]),
			PONumber:        strings.TrimSpace(row[ColPONumber]),
			Description:     row[ColDescription],
			ItemDescription: row[ColItemDescription],
		}

		rec.PurchaseOrderValue = coerceNumeric(row[ColPurchaseOrderValue], &stats)
		rec.ReceiptedValue = coerceNumeric(row[ColReceiptedValue], &stats)
		rec.InvoicedValue = coerceNumeric(row[ColInvoicedValue], &stats)

		if t, ok := parseDate(row[ColReportDate]); ok {
			rec.ReportDate = t
			rec.ReportDateValid = true
		} else {
			stats.InvalidDates++
		}

		records = append(records, rec)
	}

	return records, stats, nil
}

func missingColumns(columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	return missing
}

// coerceNumeric parses a monetary field, counting values that fail to
// parse. A blank or malformed value becomes nil, never an error.
func coerceNumeric(raw string, stats *Stats) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		stats.CoercedValues++
		return nil
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		stats.CoercedValues++
		return nil
	}

	return &v
}

func parseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

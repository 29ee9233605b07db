// internal/export/csv.go
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/spendlens/spendlens/internal/dataset"
	"github.com/spendlens/spendlens/internal/domain"
)

const dateLayout = "2006-01-02"

// WriteCSV serializes a filtered, derived record subset to w. The
// column order mirrors the drilldown table; derived columns are always
// present and nil monetary values export as blank cells. No currency
// or precision formatting is applied.
func WriteCSV(w io.Writer, records []domain.DerivedRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		dataset.ColSupplier,
		dataset.ColPONumber,
		dataset.ColDescription,
		dataset.ColItemDescription,
		dataset.ColCostCenterCode,
		dataset.ColReportDate,
		dataset.ColPurchaseOrderValue,
		dataset.ColReceiptedValue,
		dataset.ColInvoicedValue,
		dataset.ColUnreceiptedValue,
		dataset.ColUninvoicedValue,
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		date := ""
		if rec.ReportDateValid {
			date = rec.ReportDate.Format(dateLayout)
		}

		row := []string{
			rec.Supplier,
			rec.PONumber,
			rec.Description,
			rec.ItemDescription,
			rec.CostCenterCode,
			date,
			formatValue(rec.PurchaseOrderValue),
			formatValue(rec.ReceiptedValue),
			formatValue(rec.InvoicedValue),
			formatValue(rec.UnreceiptedValue),
			formatValue(rec.UninvoicedValue),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

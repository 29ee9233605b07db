// internal/report/filter.go
package report

import (
	"github.com/spendlens/spendlens/internal/domain"
)

// Filter returns the records matching the criteria, preserving input
// order. A record must fall inside the inclusive date range; records
// whose report date failed to parse are excluded from every
// date-bounded operation. The supplier and cost-center dimensions only
// restrict when their selection is non-empty: an empty selection passes
// every record. Deselecting all suppliers therefore shows all
// suppliers, not none; existing clients rely on that behavior.
func Filter(records []domain.Record, criteria domain.FilterCriteria) []domain.Record {
	suppliers := toSet(criteria.Suppliers)
	costCenters := toSet(criteria.CostCenters)

	var out []domain.Record
	for _, rec := range records {
		if !rec.ReportDateValid || !criteria.DateRange.Contains(rec.ReportDate) {
			continue
		}
		if len(suppliers) > 0 && !suppliers[rec.Supplier] {
			continue
		}
		if len(costCenters) > 0 && !costCenters[rec.CostCenterCode] {
			continue
		}
		out = append(out, rec)
	}

	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/domain"
)

func TestBuild_FullReport(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(100), fv(60), fv(40)),
		rec("A", "CC1", "2024-01-02", fv(200), fv(0), fv(0)),
		rec("B", "CC2", "2024-01-02", fv(50), fv(50), fv(25)),
		rec("C", "CC3", "2024-06-01", fv(999), nil, nil), // outside range
	}
	criteria := domain.FilterCriteria{
		DateRange: domain.DateRange{Start: day("2024-01-01"), End: day("2024-01-31")},
	}

	rep, subset, err := Build(context.Background(), records, criteria, 10)

	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Len(t, subset, 3)
	assert.Equal(t, 3, rep.FilteredRecords)

	assert.Equal(t, 350.0, rep.Summary.PurchaseOrderValue)
	assert.Equal(t, 110.0, rep.Summary.ReceiptedValue)
	assert.Equal(t, 65.0, rep.Summary.InvoicedValue)

	require.Len(t, rep.SupplierRollup, 2)
	assert.Equal(t, "A", rep.SupplierRollup[0].Supplier)
	assert.Equal(t, 300.0, rep.SupplierRollup[0].PurchaseOrderValue)

	require.Len(t, rep.TopSuppliers, 2)
	assert.Equal(t, "A", rep.TopSuppliers[0].Key)
	require.Len(t, rep.TopCostCenters, 2)
	assert.Equal(t, "CC1", rep.TopCostCenters[0].Key)

	require.NotEmpty(t, rep.SupplierTrend)
	for i := 1; i < len(rep.SupplierTrend); i++ {
		assert.False(t, rep.SupplierTrend[i].ReportDate.Before(rep.SupplierTrend[i-1].ReportDate))
	}

	// Rollup totals reconcile with the summary KPI row.
	var rollupPO float64
	for _, row := range rep.SupplierRollup {
		rollupPO += row.PurchaseOrderValue
	}
	assert.Equal(t, rep.Summary.PurchaseOrderValue, rollupPO)
}

func TestBuild_TopNDefaultsWhenUnset(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 15; i++ {
		records = append(records, rec(string(rune('A'+i)), "CC1", "2024-01-01", fv(float64(i+1)), nil, nil))
	}

	rep, _, err := Build(context.Background(), records, domain.FilterCriteria{DateRange: fullRange()}, 0)

	require.NoError(t, err)
	assert.Len(t, rep.TopSuppliers, DefaultTopN)
}

func TestBuild_EmptySubset(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(100), fv(60), fv(40)),
	}
	criteria := domain.FilterCriteria{
		DateRange: domain.DateRange{Start: day("2030-01-01"), End: day("2030-12-31")},
	}

	rep, subset, err := Build(context.Background(), records, criteria, 10)

	require.NoError(t, err)
	assert.Empty(t, subset)
	assert.Equal(t, 0, rep.FilteredRecords)
	assert.Equal(t, 0.0, rep.Summary.PurchaseOrderValue)
	assert.Empty(t, rep.SupplierRollup)
	assert.Empty(t, rep.TopSuppliers)
}

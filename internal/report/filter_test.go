package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/domain"
)

func TestFilter_DateRangeInclusiveBothEnds(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(1), nil, nil),
		rec("A", "CC1", "2024-01-15", fv(2), nil, nil),
		rec("A", "CC1", "2024-01-31", fv(3), nil, nil),
		rec("A", "CC1", "2024-02-01", fv(4), nil, nil),
	}
	criteria := domain.FilterCriteria{
		DateRange: domain.DateRange{Start: day("2024-01-01"), End: day("2024-01-31")},
	}

	got := Filter(records, criteria)

	require.Len(t, got, 3)
	assert.Equal(t, day("2024-01-01"), got[0].ReportDate)
	assert.Equal(t, day("2024-01-31"), got[2].ReportDate)
}

func TestFilter_EmptySelectionMeansUnrestricted(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(1), nil, nil),
		rec("B", "CC2", "2024-01-02", fv(2), nil, nil),
		rec("C", "CC3", "2024-01-03", fv(3), nil, nil),
	}

	unrestricted := Filter(records, domain.FilterCriteria{DateRange: fullRange()})
	explicit := Filter(records, domain.FilterCriteria{
		DateRange: fullRange(),
		Suppliers: []string{"A", "B", "C"},
	})

	// Deselecting every supplier behaves exactly like selecting all of
	// them. This is deliberate and must stay that way.
	assert.Equal(t, explicit, unrestricted)
	assert.Len(t, unrestricted, 3)
}

func TestFilter_SupplierAndCostCenterIntersect(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(1), nil, nil),
		rec("A", "CC2", "2024-01-02", fv(2), nil, nil),
		rec("B", "CC1", "2024-01-03", fv(3), nil, nil),
	}
	criteria := domain.FilterCriteria{
		DateRange:   fullRange(),
		Suppliers:   []string{"A"},
		CostCenters: []string{"CC1"},
	}

	got := Filter(records, criteria)

	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Supplier)
	assert.Equal(t, "CC1", got[0].CostCenterCode)
}

func TestFilter_Idempotent(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(1), nil, nil),
		rec("B", "CC2", "2024-01-02", fv(2), nil, nil),
		rec("C", "CC1", "2024-02-10", fv(3), nil, nil),
	}
	criteria := domain.FilterCriteria{
		DateRange: domain.DateRange{Start: day("2024-01-01"), End: day("2024-01-31")},
		Suppliers: []string{"A", "B"},
	}

	once := Filter(records, criteria)
	twice := Filter(once, criteria)

	assert.Equal(t, once, twice)
}

func TestFilter_PreservesInputOrder(t *testing.T) {
	records := []domain.Record{
		rec("C", "CC1", "2024-01-03", fv(3), nil, nil),
		rec("A", "CC1", "2024-01-01", fv(1), nil, nil),
		rec("B", "CC1", "2024-01-02", fv(2), nil, nil),
	}

	got := Filter(records, domain.FilterCriteria{DateRange: fullRange()})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{got[0].Supplier, got[1].Supplier, got[2].Supplier})
}

func TestFilter_InvalidDateExcluded(t *testing.T) {
	invalid := rec("A", "CC1", "", fv(1), nil, nil)
	records := []domain.Record{
		invalid,
		rec("B", "CC1", "2024-01-02", fv(2), nil, nil),
	}

	got := Filter(records, domain.FilterCriteria{DateRange: fullRange()})

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Supplier)
}

func TestFilter_EmptyResultIsValid(t *testing.T) {
	records := []domain.Record{
		rec("A", "CC1", "2024-01-01", fv(1), nil, nil),
	}
	criteria := domain.FilterCriteria{
		DateRange: domain.DateRange{Start: day("2025-01-01"), End: day("2025-12-31")},
	}

	got := Filter(records, criteria)

	assert.Empty(t, got)
}

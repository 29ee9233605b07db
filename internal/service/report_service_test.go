package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/cache"
	"github.com/spendlens/spendlens/internal/dataset"
	"github.com/spendlens/spendlens/internal/domain"
)

// spyCache records cache traffic so tests can assert the service
// consults it before rebuilding.
type spyCache struct {
	store           map[string]*domain.Report
	gets, sets      int
	invalidations   int
	lastInvalidated string
}

func newSpyCache() *spyCache {
	return &spyCache{store: map[string]*domain.Report{}}
}

func (s *spyCache) key(datasetID string, topN int) string {
	return datasetID + ":" + strconv.Itoa(topN)
}

func (s *spyCache) GetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int) (*domain.Report, bool, error) {
	s.gets++
	rep, ok := s.store[s.key(datasetID, topN)]
	return rep, ok, nil
}

func (s *spyCache) SetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int, rep *domain.Report) error {
	s.sets++
	s.store[s.key(datasetID, topN)] = rep
	return nil
}

func (s *spyCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	s.invalidations++
	s.lastInvalidated = datasetID
	return nil
}

func testDataset() *dataset.Dataset {
	row := func(supplier, cc, date, po, receipted, invoiced string) dataset.Row {
		return dataset.Row{
			dataset.ColSupplier:           supplier,
			dataset.ColCostCenterCode:     cc,
			dataset.ColPurchaseOrderValue: po,
			dataset.ColReceiptedValue:     receipted,
			dataset.ColInvoicedValue:      invoiced,
			dataset.ColReportDate:         date,
			dataset.ColPONumber:           "PO-" + supplier,
			dataset.ColDescription:        "desc",
			dataset.ColItemDescription:    "item",
		}
	}
	return &dataset.Dataset{
		Columns: dataset.RequiredColumns,
		Rows: []dataset.Row{
			row("A", "CC1", "2024-01-01", "100", "60", "40"),
			row("A", "CC1", "2024-01-02", "200", "0", "0"),
			row("B", "CC2", "2024-01-03", "N/A", "10", "5"),
		},
	}
}

func TestIngestDataset_RegistersAndCounts(t *testing.T) {
	svc := NewReportService(cache.NewNoopReportCache(), 10)

	stored, err := svc.IngestDataset(context.Background(), "po.csv", testDataset())

	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "po.csv", stored.Name)
	assert.Equal(t, 3, stored.Stats.Rows)
	assert.Equal(t, 1, stored.Stats.CoercedValues)
	assert.Equal(t, 0, stored.Stats.InvalidDates)

	got, err := svc.GetDataset(stored.ID)
	require.NoError(t, err)
	assert.Len(t, got.Records, 3)
}

func TestIngestDataset_SchemaErrorRejectsDataset(t *testing.T) {
	svc := NewReportService(cache.NewNoopReportCache(), 10)
	ds := &dataset.Dataset{Columns: []string{dataset.ColSupplier}}

	_, err := svc.IngestDataset(context.Background(), "bad.csv", ds)

	var schemaErr *dataset.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.NotEmpty(t, schemaErr.MissingColumns)
	assert.Empty(t, svc.ListDatasets(), "rejected datasets are not registered")
}

func TestGetDataset_Unknown(t *testing.T) {
	svc := NewReportService(cache.NewNoopReportCache(), 10)

	_, err := svc.GetDataset("missing")

	assert.True(t, errors.Is(err, ErrDatasetNotFound))
}

func TestFilterOptions(t *testing.T) {
	svc := NewReportService(cache.NewNoopReportCache(), 10)
	stored, err := svc.IngestDataset(context.Background(), "po.csv", testDataset())
	require.NoError(t, err)

	opts, err := svc.FilterOptions(stored.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, opts.Suppliers)
	assert.Equal(t, []string{"CC1", "CC2"}, opts.CostCenters)
	assert.Equal(t, "2024-01-01", opts.MinDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", opts.MaxDate.Format("2006-01-02"))
}

func TestBuildReport_UsesCache(t *testing.T) {
	spy := newSpyCache()
	svc := NewReportService(spy, 10)
	stored, err := svc.IngestDataset(context.Background(), "po.csv", testDataset())
	require.NoError(t, err)

	criteria := domain.FilterCriteria{DateRange: domain.DateRange{
		Start: stored.Records[0].ReportDate,
		End:   stored.Records[2].ReportDate,
	}}

	first, err := svc.BuildReport(context.Background(), stored.ID, criteria, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, spy.sets)

	second, err := svc.BuildReport(context.Background(), stored.ID, criteria, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, spy.gets)
	assert.Equal(t, 1, spy.sets, "second call served from cache")
	assert.Equal(t, first, second)

	assert.Equal(t, 300.0, first.Summary.PurchaseOrderValue)
	assert.Equal(t, 3, first.FilteredRecords, "coerced record stays in the subset")
}

func TestDeleteDataset_InvalidatesCache(t *testing.T) {
	spy := newSpyCache()
	svc := NewReportService(spy, 10)
	stored, err := svc.IngestDataset(context.Background(), "po.csv", testDataset())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDataset(context.Background(), stored.ID))

	assert.Equal(t, 1, spy.invalidations)
	assert.Equal(t, stored.ID, spy.lastInvalidated)
	_, err = svc.GetDataset(stored.ID)
	assert.Error(t, err)

	assert.True(t, errors.Is(svc.DeleteDataset(context.Background(), stored.ID), ErrDatasetNotFound))
}

func TestFilteredRecords_ExportSubset(t *testing.T) {
	svc := NewReportService(cache.NewNoopReportCache(), 10)
	stored, err := svc.IngestDataset(context.Background(), "po.csv", testDataset())
	require.NoError(t, err)

	criteria := domain.FilterCriteria{
		DateRange: domain.DateRange{
			Start: stored.Records[0].ReportDate,
			End:   stored.Records[2].ReportDate,
		},
		Suppliers: []string{"A"},
	}

	subset, err := svc.FilteredRecords(stored.ID, criteria)

	require.NoError(t, err)
	require.Len(t, subset, 2)
	for _, rec := range subset {
		assert.Equal(t, "A", rec.Supplier)
		require.NotNil(t, rec.UnreceiptedValue, "derived columns populated")
	}
}

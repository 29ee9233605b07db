// internal/report/report.go
package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spendlens/spendlens/internal/domain"
)

// DefaultTopN matches the dashboard's top-10 supplier and cost-center
// charts.
const DefaultTopN = 10

// Build filters and annotates the records once, then computes every
// aggregate view of the report. The aggregate queries are pure reads
// over the same immutable subset, so they run concurrently. The
// filtered derived subset is returned alongside the report for the
// export collaborator.
func Build(ctx context.Context, records []domain.Record, criteria domain.FilterCriteria, topN int) (*domain.Report, []domain.DerivedRecord, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	subset := Annotate(Filter(records, criteria))

	rep := &domain.Report{FilteredRecords: len(subset)}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.Summary = Summarize(subset)
		return nil
	})
	g.Go(func() error {
		rep.SupplierRollup = SupplierRollup(subset)
		return nil
	})
	g.Go(func() error {
		rep.SupplierTrend = TrendBySupplier(subset)
		return nil
	})
	g.Go(func() error {
		rep.CostCenterTrend = TrendByCostCenter(subset)
		return nil
	})
	g.Go(func() error {
		rep.TopSuppliers = TopSuppliers(subset, topN)
		return nil
	})
	g.Go(func() error {
		rep.TopCostCenters = TopCostCenters(subset, topN)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return rep, subset, nil
}

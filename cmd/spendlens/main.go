// cmd/spendlens/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/spendlens/spendlens/internal/dataset"
	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/export"
	"github.com/spendlens/spendlens/internal/loader"
	"github.com/spendlens/spendlens/internal/report"
)

const dateLayout = "2006-01-02"

func newInputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "input",
		Usage:    "Path to the purchase-order CSV dataset",
		Required: true,
		EnvVars:  []string{"SPENDLENS_INPUT"},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		newInputFlag(),
		&cli.StringFlag{
			Name:  "from",
			Usage: "Start of the report date range (YYYY-MM-DD, inclusive)",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "End of the report date range (YYYY-MM-DD, inclusive)",
		},
		&cli.StringFlag{
			Name:  "suppliers",
			Usage: "Comma-separated supplier selection (empty = all)",
		},
		&cli.StringFlag{
			Name:  "cost-centers",
			Usage: "Comma-separated cost center selection (empty = all)",
		},
	}
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded environment from .env")
	}

	app := &cli.App{
		Name:  "spendlens",
		Usage: "Analyze purchase-order spend from a CSV dataset",
		Commands: []*cli.Command{
			{
				Name:  "report",
				Usage: "Print summary KPIs, supplier rollup, and top-N rankings",
				Flags: append(filterFlags(),
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of rows in the top-N rankings",
						Value: report.DefaultTopN,
					},
				),
				Action: runReport,
			},
			{
				Name:  "export",
				Usage: "Write the filtered dataset with derived columns to CSV",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:     "output",
						Usage:    "Destination CSV path",
						Required: true,
					},
				),
				Action: runExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("spendlens failed")
	}
}

func runReport(c *cli.Context) error {
	records, err := loadRecords(c.String("input"))
	if err != nil {
		return err
	}

	criteria, err := buildCriteria(c, records)
	if err != nil {
		return err
	}

	rep, _, err := report.Build(context.Background(), records, criteria, c.Int("top"))
	if err != nil {
		return err
	}

	printReport(os.Stdout, rep)
	return nil
}

func runExport(c *cli.Context) error {
	records, err := loadRecords(c.String("input"))
	if err != nil {
		return err
	}

	criteria, err := buildCriteria(c, records)
	if err != nil {
		return err
	}

	subset := report.Annotate(report.Filter(records, criteria))

	out, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := export.WriteCSV(out, subset); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	log.Info().Int("rows", len(subset)).Str("output", c.String("output")).Msg("export complete")
	return nil
}

func loadRecords(path string) ([]domain.Record, error) {
	ds, err := loader.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}

	records, stats, err := dataset.Normalize(ds)
	if err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, fmt.Errorf("dataset rejected: %s", schemaErr.Error())
		}
		return nil, err
	}

	log.Info().
		Int("rows", stats.Rows).
		Int("coerced_values", stats.CoercedValues).
		Int("invalid_dates", stats.InvalidDates).
		Msg("dataset loaded")

	return records, nil
}

// buildCriteria assembles filter criteria from flags, defaulting the
// date range to the dataset's full valid span.
func buildCriteria(c *cli.Context, records []domain.Record) (domain.FilterCriteria, error) {
	var criteria domain.FilterCriteria

	for _, rec := range records {
		if !rec.ReportDateValid {
			continue
		}
		if criteria.DateRange.Start.IsZero() || rec.ReportDate.Before(criteria.DateRange.Start) {
			criteria.DateRange.Start = rec.ReportDate
		}
		if criteria.DateRange.End.IsZero() || rec.ReportDate.After(criteria.DateRange.End) {
			criteria.DateRange.End = rec.ReportDate
		}
	}

	if raw := c.String("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return criteria, fmt.Errorf("invalid --from date %q", raw)
		}
		criteria.DateRange.Start = t
	}
	if raw := c.String("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return criteria, fmt.Errorf("invalid --to date %q", raw)
		}
		criteria.DateRange.End = t
	}

	criteria.Suppliers = splitList(c.String("suppliers"))
	criteria.CostCenters = splitList(c.String("cost-centers"))
	return criteria, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printReport(out io.Writer, rep *domain.Report) {
	fmt.Fprintf(out, "Summary KPIs (%d records)\n", rep.Summary.RecordCount)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  PO Value\tReceipted\tInvoiced\tUnreceipted\tUninvoiced\n")
	fmt.Fprintf(w, "  %.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
		rep.Summary.PurchaseOrderValue,
		rep.Summary.ReceiptedValue,
		rep.Summary.InvoicedValue,
		rep.Summary.UnreceiptedValue,
		rep.Summary.UninvoicedValue,
	)
	w.Flush()

	fmt.Fprintln(out, "\nSummary by Supplier")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Supplier\tPO Value\tReceipted\tInvoiced\tUnreceipted\tUninvoiced\n")
	for _, row := range rep.SupplierRollup {
		fmt.Fprintf(w, "  %s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			row.Supplier,
			row.PurchaseOrderValue,
			row.ReceiptedValue,
			row.InvoicedValue,
			row.UnreceiptedValue,
			row.UninvoicedValue,
		)
	}
	w.Flush()

	printTrend(out, "PO Value Trend by Supplier", rep.SupplierTrend)
	printTrend(out, "PO Value Trend by Cost Center", rep.CostCenterTrend)

	printRanking(out, "Top Suppliers by PO Value", rep.TopSuppliers)
	printRanking(out, "Top Cost Centers by PO Value", rep.TopCostCenters)
}

func printTrend(out io.Writer, title string, points []domain.TrendPoint) {
	fmt.Fprintf(out, "\n%s\n", title)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range points {
		fmt.Fprintf(w, "  %s\t%s\t%.2f\n", p.ReportDate.Format(dateLayout), p.Key, p.PurchaseOrderValue)
	}
	w.Flush()
}

func printRanking(out io.Writer, title string, groups []domain.RankedGroup) {
	fmt.Fprintf(out, "\n%s\n", title)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, g := range groups {
		fmt.Fprintf(w, "  %d.\t%s\t%.2f\n", i+1, g.Key, g.PurchaseOrderValue)
	}
	w.Flush()
}

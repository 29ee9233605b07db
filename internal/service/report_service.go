// internal/service/report_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spendlens/spendlens/internal/cache"
	"github.com/spendlens/spendlens/internal/dataset"
	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/report"
)

// ErrDatasetNotFound is returned when a dataset ID is unknown.
var ErrDatasetNotFound = fmt.Errorf("dataset not found")

// StoredDataset is a normalized dataset held in memory between the
// upload and the report queries against it.
type StoredDataset struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	UploadedAt time.Time       `json:"uploaded_at"`
	Stats      dataset.Stats   `json:"stats"`
	Records    []domain.Record `json:"-"`
}

// ReportService normalizes uploaded datasets and serves filtered,
// aggregated report views over them. Records are immutable after
// normalization, so concurrent report builds over the same dataset
// need no locking beyond the registry map.
type ReportService struct {
	mu       sync.RWMutex
	datasets map[string]*StoredDataset
	cache    cache.ReportCache
	topN     int
}

func NewReportService(reportCache cache.ReportCache, defaultTopN int) *ReportService {
	if defaultTopN <= 0 {
		defaultTopN = report.DefaultTopN
	}
	return &ReportService{
		datasets: make(map[string]*StoredDataset),
		cache:    reportCache,
		topN:     defaultTopN,
	}
}

// IngestDataset validates and normalizes a decoded dataset and
// registers it under a fresh ID. A *dataset.SchemaError aborts the
// upload; coercion irregularities are only counted.
func (s *ReportService) IngestDataset(ctx context.Context, name string, ds *dataset.Dataset) (*StoredDataset, error) {
	records, stats, err := dataset.Normalize(ds)
	if err != nil {
		return nil, err
	}

	stored := &StoredDataset{
		ID:         uuid.NewString(),
		Name:       name,
		UploadedAt: time.Now(),
		Stats:      stats,
		Records:    records,
	}

	s.mu.Lock()
	s.datasets[stored.ID] = stored
	s.mu.Unlock()

	log.Info().
		Str("dataset_id", stored.ID).
		Str("name", name).
		Int("rows", stats.Rows).
		Int("coerced_values", stats.CoercedValues).
		Int("invalid_dates", stats.InvalidDates).
		Msg("dataset ingested")

	return stored, nil
}

// GetDataset returns a stored dataset by ID.
func (s *ReportService) GetDataset(id string) (*StoredDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return stored, nil
}

// DeleteDataset drops a dataset and invalidates its cached reports.
func (s *ReportService) DeleteDataset(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.datasets[id]
	delete(s.datasets, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}

	if err := s.cache.InvalidateDataset(ctx, id); err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("failed to invalidate cached reports")
	}
	return nil
}

// ListDatasets returns the stored datasets, newest first.
func (s *ReportService) ListDatasets() []*StoredDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*StoredDataset, 0, len(s.datasets))
	for _, stored := range s.datasets {
		out = append(out, stored)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

// FilterOptions lists the distinct suppliers and cost centers plus the
// valid date span of a dataset, for clients building a FilterCriteria.
func (s *ReportService) FilterOptions(id string) (*domain.FilterOptions, error) {
	stored, err := s.GetDataset(id)
	if err != nil {
		return nil, err
	}

	suppliers := make(map[string]bool)
	centers := make(map[string]bool)
	opts := &domain.FilterOptions{}

	for _, rec := range stored.Records {
		if rec.Supplier != "" {
			suppliers[rec.Supplier] = true
		}
		if rec.CostCenterCode != "" {
			centers[rec.CostCenterCode] = true
		}
		if !rec.ReportDateValid {
			continue
		}
		if opts.MinDate.IsZero() || rec.ReportDate.Before(opts.MinDate) {
			opts.MinDate = rec.ReportDate
		}
		if opts.MaxDate.IsZero() || rec.ReportDate.After(opts.MaxDate) {
			opts.MaxDate = rec.ReportDate
		}
	}

	opts.Suppliers = sortedKeys(suppliers)
	opts.CostCenters = sortedKeys(centers)
	return opts, nil
}

// BuildReport returns the aggregate report for a dataset under the
// given criteria, consulting the memoization cache first. Cache
// failures degrade to recomputation.
func (s *ReportService) BuildReport(ctx context.Context, id string, criteria domain.FilterCriteria, topN int) (*domain.Report, error) {
	stored, err := s.GetDataset(id)
	if err != nil {
		return nil, err
	}

	if topN <= 0 {
		topN = s.topN
	}

	if cached, ok, cerr := s.cache.GetReport(ctx, id, criteria, topN); cerr != nil {
		log.Warn().Err(cerr).Str("dataset_id", id).Msg("report cache read failed")
	} else if ok {
		return cached, nil
	}

	rep, _, err := report.Build(ctx, stored.Records, criteria, topN)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetReport(ctx, id, criteria, topN, rep); err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("report cache write failed")
	}

	return rep, nil
}

// FilteredRecords returns the filtered, derived subset for a dataset,
// in input order, for the export collaborator.
func (s *ReportService) FilteredRecords(id string, criteria domain.FilterCriteria) ([]domain.DerivedRecord, error) {
	stored, err := s.GetDataset(id)
	if err != nil {
		return nil, err
	}
	return report.Annotate(report.Filter(stored.Records, criteria)), nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// internal/api/handlers/report_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/spendlens/spendlens/internal/dataset"
	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/export"
	"github.com/spendlens/spendlens/internal/loader"
	"github.com/spendlens/spendlens/internal/service"
)

const dateLayout = "2006-01-02"

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// UploadDataset ingests an uploaded CSV dataset and registers it for
// report queries. A schema violation is a 422 carrying the missing
// column names.
func (h *ReportHandler) UploadDataset(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	ds, err := loader.ReadCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid CSV: %v", err)})
		return
	}

	stored, err := h.reportService.IngestDataset(c.Request.Context(), fileHeader.Filename, ds)
	if err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":           schemaErr.Error(),
				"missing_columns": schemaErr.MissingColumns,
			})
			return
		}
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to ingest dataset")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest dataset"})
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// ListDatasets returns the registered datasets, newest first.
func (h *ReportHandler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, h.reportService.ListDatasets())
}

// GetDataset returns one dataset's metadata.
func (h *ReportHandler) GetDataset(c *gin.Context) {
	stored, err := h.reportService.GetDataset(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stored)
}

// DeleteDataset drops a dataset and its cached reports.
func (h *ReportHandler) DeleteDataset(c *gin.Context) {
	if err := h.reportService.DeleteDataset(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFilterOptions lists the selectable suppliers, cost centers, and
// date span of a dataset so the client can build its filter controls.
func (h *ReportHandler) GetFilterOptions(c *gin.Context) {
	opts, err := h.reportService.FilterOptions(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, opts)
}

// GetReport builds (or serves from cache) the full aggregate report
// for a dataset under the criteria in the query string.
func (h *ReportHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	criteria, topN, err := h.parseCriteria(c, id)
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := h.reportService.BuildReport(c.Request.Context(), id, criteria, topN)
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("dataset_id", id).Msg("failed to build report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, rep)
}

// ExportFiltered streams the filtered, derived subset as a CSV
// download: the exact set of records the report was computed over.
func (h *ReportHandler) ExportFiltered(c *gin.Context) {
	id := c.Param("id")

	criteria, _, err := h.parseCriteria(c, id)
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.reportService.FilteredRecords(id, criteria)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="filtered_po_data.csv"`)
	if err := export.WriteCSV(c.Writer, records); err != nil {
		log.Error().Err(err).Str("dataset_id", id).Msg("failed to export filtered records")
	}
}

// parseCriteria decodes filter criteria from query parameters. Absent
// date bounds default to the dataset's full valid date span, matching
// the dashboard's initial state.
func (h *ReportHandler) parseCriteria(c *gin.Context, datasetID string) (domain.FilterCriteria, int, error) {
	var criteria domain.FilterCriteria

	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		opts, err := h.reportService.FilterOptions(datasetID)
		if err != nil {
			return criteria, 0, err
		}
		criteria.DateRange = domain.DateRange{Start: opts.MinDate, End: opts.MaxDate}
	}
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return criteria, 0, fmt.Errorf("invalid from date %q, want YYYY-MM-DD", from)
		}
		criteria.DateRange.Start = t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return criteria, 0, fmt.Errorf("invalid to date %q, want YYYY-MM-DD", to)
		}
		criteria.DateRange.End = t
	}

	criteria.Suppliers = splitParam(c.Query("suppliers"))
	criteria.CostCenters = splitParam(c.Query("cost_centers"))

	topN := 0
	if raw := c.Query("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return criteria, 0, fmt.Errorf("invalid top_n %q", raw)
		}
		topN = n
	}

	return criteria, topN, nil
}

func splitParam(raw string) []string {
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

// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/spendlens/spendlens/internal/api/handlers"
	"github.com/spendlens/spendlens/internal/api/middleware"
	"github.com/spendlens/spendlens/internal/service"
)

func NewRouter(reportService *service.ReportService, allowedOrigins []string, maxUploadBytes int64) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if maxUploadBytes > 0 {
		router.MaxMultipartMemory = maxUploadBytes
	}

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	reportHandler := handlers.NewReportHandler(reportService)
	datasetGroup := apiGroup.Group("/datasets")
	{
		datasetGroup.POST("", reportHandler.UploadDataset)
		datasetGroup.GET("", reportHandler.ListDatasets)
		datasetGroup.GET("/:id", reportHandler.GetDataset)
		datasetGroup.DELETE("/:id", reportHandler.DeleteDataset)
		datasetGroup.GET("/:id/filters", reportHandler.GetFilterOptions)
		datasetGroup.GET("/:id/report", reportHandler.GetReport)
		datasetGroup.GET("/:id/export", reportHandler.ExportFiltered)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}

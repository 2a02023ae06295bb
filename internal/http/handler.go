package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/api"
	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/handler"
	"github.com/waveconnect/backend-go/internal/models"
)

// HealthCheck reports whether a dependency such as the database is reachable
type HealthCheck func(ctx context.Context) error

// Handler handles HTTP requests for buoy records.
type Handler struct {
	fetcher buoy.RecordsFetcher
	checks  []HealthCheck
}

func NewHandler(fetcher buoy.RecordsFetcher, checks ...HealthCheck) *Handler {
	return &Handler{
		fetcher: fetcher,
		checks:  checks,
	}
}

// GetRecords handles GET /v1/buoys/:buoy/records.
func (h *Handler) GetRecords(c *gin.Context) {
	params := map[string]string{
		"buoy":  c.Param("buoy"),
		"start": c.Query("start"),
		"stop":  c.Query("stop"),
	}
	if bins, ok := c.GetQuery("numDirBins"); ok {
		params["numDirBins"] = bins
	}

	req, err := api.ParseRecordsRequest(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.NewErrorResponse(err.Error()))
		return
	}

	result, err := handler.FetchRecords(c.Request.Context(), h.fetcher, req)
	if err != nil {
		status := api.StatusCode(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Int("buoy", req.Buoy).Msg("Error fetching records")
			message = "Error fetching records"
		}
		c.JSON(status, api.NewErrorResponse(message))
		return
	}

	c.JSON(http.StatusOK, api.NewRecordsResponse(req, result))
}

// GetBuoys handles GET /v1/buoys.
func (h *Handler) GetBuoys(c *gin.Context) {
	c.JSON(http.StatusOK, api.NewBuoysResponse(models.KnownBuoys()))
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	status, code := "ok", http.StatusOK
	for _, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, gin.H{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Handled request")
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"sentinel/internal/models"

	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 500

// HistoryGET returns recent predictions, newest first. When no history store
// is configured the endpoint returns an empty list rather than an error.
func (h *Handlers) HistoryGET(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if parsed > maxHistoryLimit {
			parsed = maxHistoryLimit
		}
		limit = parsed
	}

	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"predictions": []any{}})
		return
	}

	records, err := h.store.RecentPredictions(c.Request.Context(), limit)
	if err != nil {
		h.logf("read prediction history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	if records == nil {
		records = []models.PredictionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": records})
}

// MetricsGET returns a fresh telemetry sample so the dashboard can animate
// live readouts outside a running monitor.
func (h *Handlers) MetricsGET(c *gin.Context) {
	if h.source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics source not available"})
		return
	}
	sample := h.source.Sample(c.Request.Context())
	c.JSON(http.StatusOK, sample)
}

package handlers

import (
	"errors"
	"net/http"

	"fundsight-backend/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MetricsHandler handles HTTP requests for fund performance metrics
type MetricsHandler struct {
	engine *metrics.Engine
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(engine *metrics.Engine) *MetricsHandler {
	return &MetricsHandler{engine: engine}
}

// GetMetrics handles GET /api/funds/:id/metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid fund ID format",
			},
		})
		return
	}

	result, err := h.engine.Metrics(c.Request.Context(), fundID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "METRICS_FAILED",
				"message": "Failed to compute metrics",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetBreakdown handles GET /api/funds/:id/metrics/:metric/breakdown
func (h *MetricsHandler) GetBreakdown(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid fund ID format",
			},
		})
		return
	}

	breakdown, err := h.engine.Breakdown(c.Request.Context(), fundID, c.Param("metric"))
	if err != nil {
		if errors.Is(err, metrics.ErrUnknownMetric) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNKNOWN_METRIC",
					"message": "Metric must be pic, total_distributions, dpi or irr",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "BREAKDOWN_FAILED",
				"message": "Failed to compute breakdown",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    breakdown,
	})
}

package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
)

// MetricsHandler exposes the in-process metrics snapshot
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(collector *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: collector}
}

// RegisterRoutes registers the handler's routes
func (h *MetricsHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/metrics", h.HandleGetMetrics)
}

// HandleGetMetrics returns all metrics
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	snapshot["goroutines"] = runtime.NumGoroutine()
	c.JSON(http.StatusOK, snapshot)
}

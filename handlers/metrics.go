package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"onusone/models"
)

// UpdateMetrics handles POST /api/metrics
//
// Accepts a partial metrics document; absent fields keep their current
// value. This is the only write path for network metrics.
func (h *Handler) UpdateMetrics(c echo.Context) error {
	var update models.NetworkMetricsUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if update.NetworkHealth != nil && (*update.NetworkHealth < 0 || *update.NetworkHealth > 100) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "network_health must be between 0 and 100",
		})
	}

	metrics := h.engine.Metrics.Update(update)
	h.cache.Invalidate("status")
	h.cache.Invalidate("economics")

	return c.JSON(http.StatusOK, metrics)
}

// GetMetrics handles GET /api/metrics
func (h *Handler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.Metrics.Snapshot())
}

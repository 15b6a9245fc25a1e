package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetPayoutBatches handles GET /api/payouts/batches
func (h *Handler) GetPayoutBatches(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	batches := h.engine.Payouts.BatchHistory(limit)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(batches),
		"batches": batches,
	})
}

// GetUserPayouts handles GET /api/payouts/users/:id
func (h *Handler) GetUserPayouts(c echo.Context) error {
	summary, err := h.engine.Payouts.UserSummary(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, summary)
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"onusone/config"
	"onusone/services"
)

// Handler serves the engine's HTTP control surface.
type Handler struct {
	cfg    *config.Config
	engine *services.Engine
	cache  *services.SnapshotCache
	mongo  *services.MongoService
}

func NewHandler(cfg *config.Config, engine *services.Engine, cache *services.SnapshotCache, mongo *services.MongoService) *Handler {
	return &Handler{
		cfg:    cfg,
		engine: engine,
		cache:  cache,
		mongo:  mongo,
	}
}

const snapshotTTL = 10 * time.Second

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"cache_mode": h.cache.Mode(),
		"timestamp":  time.Now().Unix(),
	})
}

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(c echo.Context) error {
	if payload, ok := h.cache.GetJSON("status"); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	status := h.engine.SystemStatus()
	h.cache.SetJSON("status", status, snapshotTTL)
	return c.JSON(http.StatusOK, status)
}

// GetEconomics handles GET /api/economics
func (h *Handler) GetEconomics(c echo.Context) error {
	if payload, ok := h.cache.GetJSON("economics"); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	state := h.engine.EconomicState()
	h.cache.SetJSON("economics", state, snapshotTTL)
	return c.JSON(http.StatusOK, state)
}

// ForceCycle handles POST /api/cycle
func (h *Handler) ForceCycle(c echo.Context) error {
	stats, err := h.engine.ForcePayoutCycle()
	if err != nil {
		if errors.Is(err, services.ErrCycleInProgress) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	h.cache.Invalidate("status")
	h.cache.Invalidate("economics")
	return c.JSON(http.StatusOK, stats)
}

// ForceSweep handles POST /api/sweep
func (h *Handler) ForceSweep(c echo.Context) error {
	result := h.engine.ForceBurnSweep()
	h.cache.Invalidate("economics")
	return c.JSON(http.StatusOK, result)
}

// ResetEmergency handles POST /api/emergency/reset
func (h *Handler) ResetEmergency(c echo.Context) error {
	h.engine.ResetEmergency()
	h.cache.Invalidate("status")
	h.cache.Invalidate("economics")
	return c.JSON(http.StatusOK, h.engine.Emergency.Status())
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"onusone/models"
	"onusone/services"
)

type createProfileRequest struct {
	UserID          string  `json:"user_id"`
	NodeUptime      float64 `json:"node_uptime"`
	ReputationScore float64 `json:"reputation_score"`
	TotalStaked     int64   `json:"total_staked"`
}

type stakeRequest struct {
	Amount int64 `json:"amount"`
}

type performanceRequest struct {
	NodeUptime      *float64 `json:"node_uptime"`
	ReputationScore *float64 `json:"reputation_score"`
}

// CreateProfile handles POST /api/profiles
func (h *Handler) CreateProfile(c echo.Context) error {
	var req createProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "user_id is required",
		})
	}
	if req.NodeUptime < 0 || req.NodeUptime > 100 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "node_uptime must be between 0 and 100",
		})
	}
	if req.TotalStaked < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "total_staked must not be negative",
		})
	}

	profile := h.engine.Profiles.Register(models.UserEconomicProfile{
		UserID:          req.UserID,
		NodeUptime:      req.NodeUptime,
		ReputationScore: req.ReputationScore,
		TotalStaked:     req.TotalStaked,
	})
	return c.JSON(http.StatusCreated, profile)
}

// GetProfile handles GET /api/profiles/:id
func (h *Handler) GetProfile(c echo.Context) error {
	profile, err := h.engine.Profiles.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "profile not found",
		})
	}
	return c.JSON(http.StatusOK, profile)
}

// StakeProfile handles POST /api/profiles/:id/stake
func (h *Handler) StakeProfile(c echo.Context) error {
	var req stakeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	profile, err := h.engine.Profiles.Stake(c.Param("id"), req.Amount)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UnstakeProfile handles POST /api/profiles/:id/unstake
func (h *Handler) UnstakeProfile(c echo.Context) error {
	var req stakeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	profile, err := h.engine.Profiles.Unstake(c.Param("id"), req.Amount)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdatePerformance handles POST /api/profiles/:id/performance
func (h *Handler) UpdatePerformance(c echo.Context) error {
	var req performanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	uptime, reputation := -1.0, -1.0
	if req.NodeUptime != nil {
		if *req.NodeUptime < 0 || *req.NodeUptime > 100 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "node_uptime must be between 0 and 100",
			})
		}
		uptime = *req.NodeUptime
	}
	if req.ReputationScore != nil {
		reputation = *req.ReputationScore
	}

	profile, err := h.engine.Profiles.SetPerformance(c.Param("id"), uptime, reputation)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func profileError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "profile not found",
		})
	case errors.Is(err, services.ErrInsufficientStake):
		return c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}
}

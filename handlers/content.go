package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"onusone/models"
	"onusone/services"
	"onusone/utils"
)

type createContentRequest struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Board     string `json:"board"`
	Stake     int64  `json:"stake"`
	Preserved bool   `json:"preserved"`
}

type engageRequest struct {
	Count int `json:"count"`
}

type boostRequest struct {
	Hours int `json:"hours"`
}

// CreateContent handles POST /api/content
func (h *Handler) CreateContent(c echo.Context) error {
	var req createContentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if req.Author == "" || req.Board == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "author and board are required",
		})
	}
	if req.Stake < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "stake must not be negative",
		})
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, err := h.engine.Store.Get(req.ID); err == nil {
		return c.JSON(http.StatusConflict, map[string]string{
			"error": "content already exists",
		})
	}

	item := models.ContentItem{
		ID:         req.ID,
		Author:     req.Author,
		Board:      req.Board,
		CreatedAt:  time.Now(),
		StakeTotal: req.Stake,
		Preserved:  req.Preserved,
	}
	h.engine.Store.Put(item)

	return c.JSON(http.StatusCreated, item)
}

// ListContent handles GET /api/content
func (h *Handler) ListContent(c echo.Context) error {
	board := c.QueryParam("board")

	var items []models.ContentItem
	if board != "" {
		items = h.engine.Store.ListBoard(board)
	} else {
		items = h.engine.Store.List()
	}

	now := time.Now()
	type scoredItem struct {
		models.ContentItem
		DecayScore int `json:"decay_score"`
	}
	out := make([]scoredItem, 0, len(items))
	for i := range items {
		out = append(out, scoredItem{
			ContentItem: items[i],
			DecayScore:  utils.DecayScore(&items[i], now),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(out),
		"items": out,
	})
}

// GetContent handles GET /api/content/:id
func (h *Handler) GetContent(c echo.Context) error {
	item, err := h.engine.Store.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "content not found",
		})
	}

	now := time.Now()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"item":        item,
		"decay_score": utils.DecayScore(&item, now),
		"burn":        h.engine.Burns.Evaluate(&item, now),
	})
}

// EngageContent handles POST /api/content/:id/engage
func (h *Handler) EngageContent(c echo.Context) error {
	var req engageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	item, err := h.engine.Store.Update(c.Param("id"), func(ci *models.ContentItem) error {
		ci.EngagementCount += req.Count
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrContentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "content not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, item)
}

// BoostContent handles POST /api/content/:id/boost
func (h *Handler) BoostContent(c echo.Context) error {
	var req boostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}
	if req.Hours <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "hours must be positive",
		})
	}

	until := time.Now().Add(time.Duration(req.Hours) * time.Hour)
	item, err := h.engine.Store.Update(c.Param("id"), func(ci *models.ContentItem) error {
		ci.BoostUntil = &until
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrContentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "content not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, item)
}

// GetBurnHistory handles GET /api/content/:id/burns
func (h *Handler) GetBurnHistory(c echo.Context) error {
	id := c.Param("id")

	item, err := h.engine.Store.Get(id)
	if err != nil {
		// The item may have been evicted from the live store; fall back to
		// the persisted history.
		if h.mongo != nil && h.mongo.Enabled() {
			records, mErr := h.mongo.BurnHistory(id, 50)
			if mErr == nil && len(records) > 0 {
				return c.JSON(http.StatusOK, map[string]interface{}{
					"content_id": id,
					"burns":      records,
				})
			}
		}
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "content not found",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"content_id":   id,
		"burned_total": item.BurnedTotal,
		"burns":        item.BurnHistory,
	})
}

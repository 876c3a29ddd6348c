package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/internal/domain/repositories"
	"github.com/taxfolio/taxfolio/internal/domain/services/taxengine"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

// Harvest screen defaults when the query omits them.
var (
	defaultHarvestLimit   = 10
	defaultHarvestMinLoss = decimal.NewFromInt(50)
)

// PortfolioHandler handles valuation, summary, harvest, and what-if
// endpoints
type PortfolioHandler struct {
	engine *taxengine.Engine
	lots   repositories.LotStore
	logger *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(engine *taxengine.Engine, lots repositories.LotStore, logger *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		engine: engine,
		lots:   lots,
		logger: logger,
	}
}

// Holdings returns the per-lot valuation of the portfolio
func (h *PortfolioHandler) Holdings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	results, err := h.engine.Valuation(c.Request.Context(), userID, asOf)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	rounded := make([]entities.LotResult, len(results))
	for i, r := range results {
		rounded[i] = r.Rounded()
	}
	c.JSON(http.StatusOK, gin.H{"holdings": rounded, "count": len(rounded)})
}

// Summary returns the aggregated portfolio view
func (h *PortfolioHandler) Summary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	summary, err := h.engine.Summary(c.Request.Context(), userID, asOf)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary.Rounded())
}

// HarvestCandidates returns ranked loss-harvesting candidates
func (h *PortfolioHandler) HarvestCandidates(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	limit := defaultHarvestLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondBadRequest(c, "limit must be a positive integer", nil)
			return
		}
	}

	minLoss := defaultHarvestMinLoss
	if raw := c.Query("min_loss"); raw != "" {
		minLoss, err = decimal.NewFromString(raw)
		if err != nil || minLoss.IsNegative() {
			respondBadRequest(c, "min_loss must be a non-negative number", nil)
			return
		}
	}

	candidates, err := h.engine.HarvestCandidates(c.Request.Context(), userID, limit, minLoss, asOf)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	rounded := make([]entities.HarvestCandidate, len(candidates))
	for i, cand := range candidates {
		rounded[i] = cand.Rounded()
	}
	c.JSON(http.StatusOK, gin.H{"candidates": rounded, "count": len(rounded)})
}

// SellRequest is the what-if and sell payload
type SellRequest struct {
	Symbol   string          `json:"symbol" binding:"required,ticker"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// WhatIfSell projects a FIFO sale without touching any lot
func (h *PortfolioHandler) WhatIfSell(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid sell payload: "+err.Error(), nil)
		return
	}
	if !req.Quantity.IsPositive() {
		respondBadRequest(c, "quantity must be positive", nil)
		return
	}

	result, err := h.engine.SimulateSell(c.Request.Context(), userID, req.Symbol, req.Quantity, asOf)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Rounded())
}

// ExecuteSell runs the same FIFO projection and then applies it to the lot
// store in one transaction.
func (h *PortfolioHandler) ExecuteSell(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid sell payload: "+err.Error(), nil)
		return
	}
	if !req.Quantity.IsPositive() {
		respondBadRequest(c, "quantity must be positive", nil)
		return
	}

	result, err := h.engine.SimulateSell(c.Request.Context(), userID, req.Symbol, req.Quantity, time.Time{})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if err := h.lots.ApplySale(c.Request.Context(), userID, result.LotsConsumed); err != nil {
		h.logger.WithError(err).Error("Failed to apply sale")
		respondError(c, http.StatusConflict, "CONFLICT", "lots changed during the sale, retry", nil)
		return
	}

	c.JSON(http.StatusOK, result.Rounded())
}

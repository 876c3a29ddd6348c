package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/services/quotes"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

// QuoteHandler handles manual quote endpoints
type QuoteHandler struct {
	quoteService *quotes.Service
	logger       *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteService *quotes.Service, logger *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// QuotesRequest maps symbol to latest price
type QuotesRequest struct {
	Quotes map[string]decimal.Decimal `json:"quotes" binding:"required"`
}

// Upsert stores the given prices for the authenticated user
func (h *QuoteHandler) Upsert(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	var req QuotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid quotes payload: "+err.Error(), nil)
		return
	}

	if err := h.quoteService.Upsert(c.Request.Context(), userID, req.Quotes); err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stored": len(req.Quotes)})
}

// Get returns every stored quote for the authenticated user
func (h *QuoteHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	all, err := h.quoteService.All(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read quotes")
		respondInternalError(c, "failed to read quotes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": all})
}

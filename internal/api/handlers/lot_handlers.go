package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/internal/domain/repositories"
	"github.com/taxfolio/taxfolio/internal/domain/services/importer"
	infrarepos "github.com/taxfolio/taxfolio/internal/infrastructure/repositories"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

// maxImportSize caps uploaded CSV files at 5 MB.
const maxImportSize = 5 << 20

// LotHandler handles tax lot endpoints
type LotHandler struct {
	lots     repositories.LotStore
	importer *importer.Service
	logger   *logger.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(lots repositories.LotStore, importerService *importer.Service, logger *logger.Logger) *LotHandler {
	return &LotHandler{
		lots:     lots,
		importer: importerService,
		logger:   logger,
	}
}

// LotRequest is the single-lot creation payload
type LotRequest struct {
	Symbol       string          `json:"symbol" binding:"required,ticker"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	CostPerShare decimal.Decimal `json:"cost_per_share" binding:"required"`
	PurchaseDate string          `json:"purchase_date" binding:"required"`
	Account      *string         `json:"account"`
}

// List returns all of the user's open lots in FIFO order
func (h *LotHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	lots, err := h.lots.OpenLots(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list lots")
		respondInternalError(c, "failed to list lots")
		return
	}

	c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
}

// Create adds a single lot
func (h *LotHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	var req LotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid lot payload: "+err.Error(), nil)
		return
	}

	if !req.Quantity.IsPositive() {
		respondBadRequest(c, "quantity must be positive", nil)
		return
	}
	if req.CostPerShare.IsNegative() {
		respondBadRequest(c, "cost_per_share must not be negative", nil)
		return
	}
	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		respondBadRequest(c, "invalid purchase_date, expected YYYY-MM-DD", nil)
		return
	}
	if purchaseDate.After(time.Now()) {
		respondBadRequest(c, "purchase_date must not be in the future", nil)
		return
	}

	lot := &entities.Lot{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Quantity:     req.Quantity,
		CostPerShare: req.CostPerShare,
		PurchaseDate: purchaseDate,
		Account:      req.Account,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.lots.Create(c.Request.Context(), lot); err != nil {
		h.logger.WithError(err).Error("Failed to create lot")
		respondInternalError(c, "failed to create lot")
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// Delete removes one of the user's lots
func (h *LotHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid lot id", nil)
		return
	}

	if err := h.lots.Delete(c.Request.Context(), userID, lotID); err != nil {
		if err == infrarepos.ErrNotFound {
			respondNotFound(c, "lot")
			return
		}
		h.logger.WithError(err).Error("Failed to delete lot")
		respondInternalError(c, "failed to delete lot")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": lotID})
}

// ImportCSV bulk-loads lots from an uploaded CSV file
func (h *LotHandler) ImportCSV(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondBadRequest(c, "multipart field \"file\" is required", nil)
		return
	}
	defer file.Close()

	if header.Size > maxImportSize {
		respondBadRequest(c, "import file exceeds the 5 MB limit", nil)
		return
	}

	count, err := h.importer.Import(c.Request.Context(), userID, file)
	if err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imported": count})
}

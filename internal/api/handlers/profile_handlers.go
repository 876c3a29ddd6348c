package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/internal/domain/repositories"
	"github.com/taxfolio/taxfolio/internal/domain/services/taxengine"
	infrarepos "github.com/taxfolio/taxfolio/internal/infrastructure/repositories"
	apperrors "github.com/taxfolio/taxfolio/pkg/errors"
	"github.com/taxfolio/taxfolio/pkg/logger"
)

// ProfileHandler handles tax profile endpoints
type ProfileHandler struct {
	profiles repositories.ProfileStore
	logger   *logger.Logger
}

// NewProfileHandler creates a new tax profile handler
func NewProfileHandler(profiles repositories.ProfileStore, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// ProfileRequest is the tax profile upsert payload. Rates are fractions, not
// percentages: 0.24 means 24%.
type ProfileRequest struct {
	FilingStatus       string          `json:"filing_status" binding:"required,oneof=single married_joint married_separate head"`
	FederalSTRate      decimal.Decimal `json:"federal_st_rate"`
	FederalLTRate      decimal.Decimal `json:"federal_lt_rate"`
	StateCode          string          `json:"state_code"`
	StateSTRate        decimal.Decimal `json:"state_st_rate"`
	StateLTRate        decimal.Decimal `json:"state_lt_rate"`
	NIITRate           decimal.Decimal `json:"niit_rate"`
	CarryForwardLosses decimal.Decimal `json:"carry_forward_losses"`
}

// Upsert creates or replaces the authenticated user's tax profile
func (h *ProfileHandler) Upsert(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid profile payload: "+err.Error(), nil)
		return
	}

	profile := &entities.TaxProfile{
		UserID:             userID,
		FilingStatus:       entities.FilingStatus(req.FilingStatus),
		FederalSTRate:      req.FederalSTRate,
		FederalLTRate:      req.FederalLTRate,
		StateCode:          req.StateCode,
		StateSTRate:        req.StateSTRate,
		StateLTRate:        req.StateLTRate,
		NIITRate:           req.NIITRate,
		CarryForwardLosses: req.CarryForwardLosses,
		UpdatedAt:          time.Now().UTC(),
	}

	if err := taxengine.ValidateProfile(profile); err != nil {
		respondAPIError(c, apperrors.New(apperrors.ErrCodeInvalidProfile, err.Error()))
		return
	}

	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		h.logger.WithError(err).Error("Failed to upsert tax profile")
		respondInternalError(c, "failed to save tax profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Get returns the authenticated user's tax profile
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondUnauthorized(c, "authentication required")
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		if err == infrarepos.ErrNotFound {
			respondAPIError(c, apperrors.New(apperrors.ErrCodeProfileNotFound, "tax profile not set, create one first"))
			return
		}
		h.logger.WithError(err).Error("Failed to load tax profile")
		respondInternalError(c, "failed to load tax profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

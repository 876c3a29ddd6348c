package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/internal/domain/services/taxengine"
	infrarepos "github.com/taxfolio/taxfolio/internal/infrastructure/repositories"
	apperrors "github.com/taxfolio/taxfolio/pkg/errors"
)

// getUserID extracts and validates user ID from context
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, fmt.Errorf("user ID not found in context")
	}

	switch v := userIDVal.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, fmt.Errorf("invalid user ID type in context")
	}
}

// parseAsOf reads the optional asof query parameter (YYYY-MM-DD). The zero
// time means "now".
func parseAsOf(c *gin.Context) (time.Time, error) {
	raw := c.Query("asof")
	if raw == "" {
		return time.Time{}, nil
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid asof date %q, expected YYYY-MM-DD", raw)
	}
	return asOf, nil
}

// respondError sends a standardized error response
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, entities.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondAPIError sends an APIError with its mapped status code
func respondAPIError(c *gin.Context, err *apperrors.APIError) {
	c.JSON(err.StatusCode, entities.ErrorResponse{
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	})
}

// respondUnauthorized sends an unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	respondAPIError(c, apperrors.Unauthorized(message))
}

// respondBadRequest sends a bad request error
func respondBadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respondAPIError(c, apperrors.NewWithDetails(apperrors.ErrCodeInvalidInput, message, details))
}

// respondInternalError sends an internal server error
func respondInternalError(c *gin.Context, message string) {
	respondAPIError(c, apperrors.Internal(message))
}

// respondNotFound sends a not found error for the named resource
func respondNotFound(c *gin.Context, resource string) {
	respondAPIError(c, apperrors.NotFound(resource))
}

// respondEngineError maps engine and store errors onto the API error codes.
// Unknown errors fall through to a 500 without leaking internals.
func respondEngineError(c *gin.Context, err error) {
	var (
		invalidDate  *taxengine.InvalidDateError
		invalidProf  *taxengine.InvalidProfileError
		quoteMissing *taxengine.QuoteMissingError
		insufficient *taxengine.InsufficientQuantityError
	)

	switch {
	case errors.As(err, &invalidDate):
		respondAPIError(c, apperrors.New(apperrors.ErrCodeInvalidDate, err.Error()))
	case errors.As(err, &invalidProf):
		respondAPIError(c, apperrors.New(apperrors.ErrCodeInvalidProfile, err.Error()))
	case errors.As(err, &quoteMissing):
		respondAPIError(c, apperrors.NewWithDetails(apperrors.ErrCodeQuoteMissing, err.Error(),
			map[string]interface{}{"symbol": quoteMissing.Symbol}))
	case errors.As(err, &insufficient):
		respondAPIError(c, apperrors.NewWithDetails(apperrors.ErrCodeInsufficientQuantity, err.Error(),
			map[string]interface{}{
				"symbol":    insufficient.Symbol,
				"requested": insufficient.Requested.String(),
				"available": insufficient.Available.String(),
			}))
	case errors.Is(err, infrarepos.ErrNotFound):
		respondAPIError(c, apperrors.New(apperrors.ErrCodeProfileNotFound, "tax profile not set, create one first"))
	default:
		respondInternalError(c, "internal server error")
	}
}

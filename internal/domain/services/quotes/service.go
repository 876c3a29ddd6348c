package quotes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/repositories"
)

// Service validates and stores user-supplied quotes and reads them back.
type Service struct {
	store  repositories.QuoteSource
	logger *zap.Logger
}

// NewService creates a new quote service
func NewService(store repositories.QuoteSource, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Upsert stores the given prices for the user. Every symbol must be non-empty
// and every price strictly positive; one bad entry rejects the whole batch.
func (s *Service) Upsert(ctx context.Context, userID uuid.UUID, prices map[string]decimal.Decimal) error {
	if len(prices) == 0 {
		return fmt.Errorf("at least one quote is required")
	}

	normalized := make(map[string]decimal.Decimal, len(prices))
	for sym, price := range prices {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return fmt.Errorf("quote symbol must not be empty")
		}
		if !price.IsPositive() {
			return fmt.Errorf("quote price for %s must be positive, got %s", sym, price)
		}
		normalized[sym] = price
	}

	if err := s.store.Upsert(ctx, userID, normalized); err != nil {
		return err
	}
	s.logger.Debug("Quotes stored", zap.String("user_id", userID.String()), zap.Int("count", len(normalized)))
	return nil
}

// All returns every stored quote for the user.
func (s *Service) All(ctx context.Context, userID uuid.UUID) (map[string]decimal.Decimal, error) {
	symbols, err := s.store.Symbols(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Prices(ctx, userID, symbols)
}

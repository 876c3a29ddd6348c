package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteStore keeps each user's latest prices in a Redis hash keyed by user,
// field per symbol. Quotes never expire on their own; a refresh or manual
// upsert overwrites them in place.
type QuoteStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQuoteStore creates a Redis-backed quote store
func NewQuoteStore(client *redis.Client, logger *zap.Logger) *QuoteStore {
	return &QuoteStore{
		client: client,
		logger: logger,
	}
}

func quoteKey(userID uuid.UUID) string {
	return "quotes:" + userID.String()
}

// Price returns the latest price for one symbol. The boolean reports whether
// a quote exists.
func (s *QuoteStore) Price(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, bool, error) {
	val, err := s.client.HGet(ctx, quoteKey(userID), strings.ToUpper(symbol)).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read quote: %w", err)
	}

	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt quote for %s: %w", symbol, err)
	}
	return price, true, nil
}

// Prices returns the latest prices for the given symbols. Symbols without a
// quote are simply absent from the result.
func (s *QuoteStore) Prices(ctx context.Context, userID uuid.UUID, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return prices, nil
	}

	fields := make([]string, len(symbols))
	for i, sym := range symbols {
		fields[i] = strings.ToUpper(sym)
	}

	vals, err := s.client.HMGet(ctx, quoteKey(userID), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read quotes: %w", err)
	}

	for i, v := range vals {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(str)
		if err != nil {
			s.logger.Warn("Skipping corrupt quote", zap.String("symbol", fields[i]), zap.Error(err))
			continue
		}
		prices[fields[i]] = price
	}
	return prices, nil
}

// Upsert stores the given prices, overwriting existing quotes per symbol.
func (s *QuoteStore) Upsert(ctx context.Context, userID uuid.UUID, quotes map[string]decimal.Decimal) error {
	if len(quotes) == 0 {
		return nil
	}

	pairs := make([]interface{}, 0, len(quotes)*2)
	for sym, price := range quotes {
		pairs = append(pairs, strings.ToUpper(sym), price.String())
	}

	if err := s.client.HSet(ctx, quoteKey(userID), pairs...).Err(); err != nil {
		return fmt.Errorf("failed to store quotes: %w", err)
	}
	return nil
}

// Symbols lists every symbol the user has a quote for.
func (s *QuoteStore) Symbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	symbols, err := s.client.HKeys(ctx, quoteKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list quoted symbols: %w", err)
	}
	return symbols, nil
}

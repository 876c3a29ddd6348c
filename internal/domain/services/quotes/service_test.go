package quotes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryQuoteStore is an in-memory QuoteSource for tests.
type memoryQuoteStore struct {
	data map[uuid.UUID]map[string]decimal.Decimal
}

func newMemoryQuoteStore() *memoryQuoteStore {
	return &memoryQuoteStore{data: make(map[uuid.UUID]map[string]decimal.Decimal)}
}

func (s *memoryQuoteStore) Price(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, bool, error) {
	price, ok := s.data[userID][symbol]
	return price, ok, nil
}

func (s *memoryQuoteStore) Prices(ctx context.Context, userID uuid.UUID, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, sym := range symbols {
		if price, ok := s.data[userID][sym]; ok {
			out[sym] = price
		}
	}
	return out, nil
}

func (s *memoryQuoteStore) Upsert(ctx context.Context, userID uuid.UUID, quotes map[string]decimal.Decimal) error {
	if s.data[userID] == nil {
		s.data[userID] = make(map[string]decimal.Decimal)
	}
	for sym, price := range quotes {
		s.data[userID][sym] = price
	}
	return nil
}

func (s *memoryQuoteStore) Symbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var symbols []string
	for sym := range s.data[userID] {
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

func TestUpsertNormalizesSymbols(t *testing.T) {
	store := newMemoryQuoteStore()
	svc := NewService(store, zap.NewNop())
	userID := uuid.New()

	err := svc.Upsert(context.Background(), userID, map[string]decimal.Decimal{
		" aapl ": decimal.RequireFromString("150.25"),
		"MSFT":   decimal.RequireFromString("300"),
	})
	require.NoError(t, err)

	price, ok, err := store.Price(context.Background(), userID, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("150.25")))
}

func TestUpsertRejectsBadQuotes(t *testing.T) {
	svc := NewService(newMemoryQuoteStore(), zap.NewNop())
	userID := uuid.New()
	ctx := context.Background()

	err := svc.Upsert(ctx, userID, nil)
	require.Error(t, err)

	err = svc.Upsert(ctx, userID, map[string]decimal.Decimal{"AAPL": decimal.Zero})
	require.Error(t, err)

	err = svc.Upsert(ctx, userID, map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("-5")})
	require.Error(t, err)

	err = svc.Upsert(ctx, userID, map[string]decimal.Decimal{"  ": decimal.RequireFromString("5")})
	require.Error(t, err)
}

func TestAll(t *testing.T) {
	store := newMemoryQuoteStore()
	svc := NewService(store, zap.NewNop())
	userID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, userID, map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("150"),
		"MSFT": decimal.RequireFromString("300"),
	}))

	all, err := svc.All(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Another user sees nothing.
	other, err := svc.All(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

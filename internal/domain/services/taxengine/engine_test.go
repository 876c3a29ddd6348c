package taxengine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// Mock stores

type mockLotStore struct {
	mock.Mock
}

func (m *mockLotStore) OpenLots(ctx context.Context, userID uuid.UUID) ([]entities.Lot, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]entities.Lot), args.Error(1)
}

func (m *mockLotStore) OpenLotsBySymbol(ctx context.Context, userID uuid.UUID, symbol string) ([]entities.Lot, error) {
	args := m.Called(ctx, userID, symbol)
	return args.Get(0).([]entities.Lot), args.Error(1)
}

func (m *mockLotStore) Create(ctx context.Context, lot *entities.Lot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *mockLotStore) CreateBatch(ctx context.Context, lots []entities.Lot) (int, error) {
	args := m.Called(ctx, lots)
	return args.Int(0), args.Error(1)
}

func (m *mockLotStore) Delete(ctx context.Context, userID, lotID uuid.UUID) error {
	args := m.Called(ctx, userID, lotID)
	return args.Error(0)
}

func (m *mockLotStore) Symbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockLotStore) ApplySale(ctx context.Context, userID uuid.UUID, consumed []entities.ConsumedLot) error {
	args := m.Called(ctx, userID, consumed)
	return args.Error(0)
}

type mockQuoteSource struct {
	mock.Mock
}

func (m *mockQuoteSource) Price(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, userID, symbol)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *mockQuoteSource) Prices(ctx context.Context, userID uuid.UUID, symbols []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, userID, symbols)
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func (m *mockQuoteSource) Upsert(ctx context.Context, userID uuid.UUID, quotes map[string]decimal.Decimal) error {
	args := m.Called(ctx, userID, quotes)
	return args.Error(0)
}

func (m *mockQuoteSource) Symbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) Get(ctx context.Context, userID uuid.UUID) (*entities.TaxProfile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*entities.TaxProfile), args.Error(1)
}

func (m *mockProfileStore) Upsert(ctx context.Context, profile *entities.TaxProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func newTestEngine(lots *mockLotStore, quotes *mockQuoteSource, profiles *mockProfileStore) *Engine {
	return NewEngine(lots, quotes, profiles, zap.NewNop())
}

func makeLot(symbol string, qty, cost string, purchaseDate time.Time) entities.Lot {
	return entities.Lot{
		ID:           uuid.New(),
		Symbol:       symbol,
		Quantity:     dec(qty),
		CostPerShare: dec(cost),
		PurchaseDate: purchaseDate,
	}
}

func TestValuation(t *testing.T) {
	userID := uuid.New()
	lotA := makeLot("AAPL", "10", "100", daysAgo(400)) // long, gain
	lotB := makeLot("MSFT", "5", "300", daysAgo(100))  // short, loss

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(testProfile(), nil)
	lots.On("OpenLots", mock.Anything, userID).Return([]entities.Lot{lotA, lotB}, nil)
	quotes.On("Prices", mock.Anything, userID, []string{"AAPL", "MSFT"}).Return(map[string]decimal.Decimal{
		"AAPL": dec("150"),
		"MSFT": dec("250"),
	}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	results, err := engine.Valuation(context.Background(), userID, asOf)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Input order is preserved.
	assert.Equal(t, lotA.ID, results[0].LotID)
	assert.Equal(t, lotB.ID, results[1].LotID)

	a := results[0]
	assert.Equal(t, entities.TermLong, a.Term)
	assert.Equal(t, 400, a.HoldingDays)
	assert.Equal(t, 0, a.DaysToLT)
	assert.True(t, a.UnrealizedGain.Equal(dec("500")), "got %s", a.UnrealizedGain)
	// Gain lots carry no harvest savings.
	assert.True(t, a.EstTaxSavings.IsZero())

	b := results[1]
	assert.Equal(t, entities.TermShort, b.Term)
	assert.Equal(t, 266, b.DaysToLT)
	assert.True(t, b.UnrealizedGain.Equal(dec("-250")), "got %s", b.UnrealizedGain)
	// Loss lots owe no tax; the full position value is kept.
	assert.True(t, b.EstTaxLiability.IsZero())
	assert.True(t, b.AfterTaxValue.Equal(dec("1250")), "got %s", b.AfterTaxValue)
	assert.False(t, b.EstTaxSavings.IsZero())

	// after_tax_value + tax == quantity * price, exactly.
	for _, r := range results {
		sum := r.AfterTaxValue.Add(r.EstTaxLiability)
		assert.True(t, sum.Equal(r.Quantity.Mul(r.Price)), "%s: %s != %s", r.Symbol, sum, r.Quantity.Mul(r.Price))
	}
}

func TestValuationIsIdempotent(t *testing.T) {
	userID := uuid.New()
	lot := makeLot("AAPL", "3", "90", daysAgo(50))

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(testProfile(), nil)
	lots.On("OpenLots", mock.Anything, userID).Return([]entities.Lot{lot}, nil)
	quotes.On("Prices", mock.Anything, userID, []string{"AAPL"}).Return(map[string]decimal.Decimal{"AAPL": dec("100")}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	first, err := engine.Valuation(context.Background(), userID, asOf)
	require.NoError(t, err)
	second, err := engine.Valuation(context.Background(), userID, asOf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValuationMissingQuote(t *testing.T) {
	userID := uuid.New()
	lot := makeLot("OBSCURE", "10", "50", daysAgo(200))

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(testProfile(), nil)
	lots.On("OpenLots", mock.Anything, userID).Return([]entities.Lot{lot}, nil)
	quotes.On("Prices", mock.Anything, userID, []string{"OBSCURE"}).Return(map[string]decimal.Decimal{}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	results, err := engine.Valuation(context.Background(), userID, asOf)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.QuoteMissing)
	// Classification still happens; money figures stay zero.
	assert.Equal(t, entities.TermShort, r.Term)
	assert.Equal(t, 200, r.HoldingDays)
	assert.True(t, r.Price.IsZero())
	assert.True(t, r.UnrealizedGain.IsZero())
	assert.True(t, r.EstTaxLiability.IsZero())
	assert.True(t, r.AfterTaxValue.IsZero())
}

func TestValuationFuturePurchaseDateFails(t *testing.T) {
	userID := uuid.New()
	lot := makeLot("AAPL", "1", "100", asOf.AddDate(0, 0, 5))

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(testProfile(), nil)
	lots.On("OpenLots", mock.Anything, userID).Return([]entities.Lot{lot}, nil)
	quotes.On("Prices", mock.Anything, userID, []string{"AAPL"}).Return(map[string]decimal.Decimal{"AAPL": dec("1")}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	_, err := engine.Valuation(context.Background(), userID, asOf)

	var invalidDate *InvalidDateError
	require.ErrorAs(t, err, &invalidDate)
}

func TestValuationEmptyPortfolio(t *testing.T) {
	userID := uuid.New()

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(testProfile(), nil)
	lots.On("OpenLots", mock.Anything, userID).Return([]entities.Lot{}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	results, err := engine.Valuation(context.Background(), userID, asOf)
	require.NoError(t, err)
	assert.Empty(t, results)
}

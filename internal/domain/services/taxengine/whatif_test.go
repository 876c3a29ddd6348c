package taxengine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

func TestSimulateSellFIFOSplit(t *testing.T) {
	userID := uuid.New()
	oldLot := makeLot("AAPL", "10", "100", daysAgo(400)) // long term
	newLot := makeLot("AAPL", "5", "120", daysAgo(100))  // short term

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(flatProfile("0"), nil)
	lots.On("OpenLotsBySymbol", mock.Anything, userID, "AAPL").Return([]entities.Lot{oldLot, newLot}, nil)
	quotes.On("Price", mock.Anything, userID, "AAPL").Return(dec("130"), true, nil)

	engine := newTestEngine(lots, quotes, profiles)
	out, err := engine.SimulateSell(context.Background(), userID, "aapl ", dec("12"), asOf)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", out.Symbol)
	assert.True(t, out.SellQuantity.Equal(dec("12")))
	assert.True(t, out.AsofPrice.Equal(dec("130")))

	// Oldest lot is drained first, then the next one covers the rest.
	require.Len(t, out.LotsConsumed, 2)

	first := out.LotsConsumed[0]
	assert.Equal(t, oldLot.ID, first.LotID)
	assert.True(t, first.QtyUsed.Equal(dec("10")))
	assert.Equal(t, entities.TermLong, first.Term)
	// (130-100)*10 = 300, taxed at 0.20
	assert.True(t, first.RealizedGain.Equal(dec("300")))
	assert.True(t, first.EstTax.Equal(dec("60")), "got %s", first.EstTax)

	second := out.LotsConsumed[1]
	assert.Equal(t, newLot.ID, second.LotID)
	assert.True(t, second.QtyUsed.Equal(dec("2")))
	assert.Equal(t, entities.TermShort, second.Term)
	// (130-120)*2 = 20, taxed at 0.29
	assert.True(t, second.RealizedGain.Equal(dec("20")))
	assert.True(t, second.EstTax.Equal(dec("5.8")), "got %s", second.EstTax)

	assert.True(t, out.RealizedGain.Equal(dec("320")))
	assert.True(t, out.EstTax.Equal(dec("65.8")))

	// Simulation never touches the lot store.
	lots.AssertNotCalled(t, "ApplySale", mock.Anything, mock.Anything, mock.Anything)
}

func TestSimulateSellThreadsCarryForward(t *testing.T) {
	userID := uuid.New()
	oldLot := makeLot("AAPL", "10", "100", daysAgo(400))
	newLot := makeLot("AAPL", "5", "120", daysAgo(100))

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(flatProfile("250"), nil)
	lots.On("OpenLotsBySymbol", mock.Anything, userID, "AAPL").Return([]entities.Lot{oldLot, newLot}, nil)
	quotes.On("Price", mock.Anything, userID, "AAPL").Return(dec("130"), true, nil)

	engine := newTestEngine(lots, quotes, profiles)
	out, err := engine.SimulateSell(context.Background(), userID, "AAPL", dec("12"), asOf)
	require.NoError(t, err)

	// Carry shields 250 of the first slice's 300 gain: 50 * 0.20 = 10. The
	// balance is exhausted, so the second slice is fully taxed: 20 * 0.29.
	require.Len(t, out.LotsConsumed, 2)
	assert.True(t, out.LotsConsumed[0].EstTax.Equal(dec("10")), "got %s", out.LotsConsumed[0].EstTax)
	assert.True(t, out.LotsConsumed[1].EstTax.Equal(dec("5.8")), "got %s", out.LotsConsumed[1].EstTax)
}

func TestSimulateSellInsufficientQuantity(t *testing.T) {
	userID := uuid.New()
	lot := makeLot("AAPL", "10", "100", daysAgo(400))

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(flatProfile("0"), nil)
	lots.On("OpenLotsBySymbol", mock.Anything, userID, "AAPL").Return([]entities.Lot{lot}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	out, err := engine.SimulateSell(context.Background(), userID, "AAPL", dec("11"), asOf)

	// No partial breakdown comes back.
	assert.Nil(t, out)
	var insufficient *InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "AAPL", insufficient.Symbol)
	assert.True(t, insufficient.Requested.Equal(dec("11")))
	assert.True(t, insufficient.Available.Equal(dec("10")))

	// The availability check happens before any price lookup.
	quotes.AssertNotCalled(t, "Price", mock.Anything, mock.Anything, mock.Anything)
}

func TestSimulateSellNoLotsForSymbol(t *testing.T) {
	userID := uuid.New()

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(flatProfile("0"), nil)
	lots.On("OpenLotsBySymbol", mock.Anything, userID, "TSLA").Return([]entities.Lot{}, nil)

	engine := newTestEngine(lots, quotes, profiles)
	_, err := engine.SimulateSell(context.Background(), userID, "TSLA", dec("1"), asOf)

	var insufficient *InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.IsZero())
}

func TestSimulateSellMissingQuote(t *testing.T) {
	userID := uuid.New()
	lot := makeLot("AAPL", "10", "100", daysAgo(400))

	lots := new(mockLotStore)
	quotes := new(mockQuoteSource)
	profiles := new(mockProfileStore)

	profiles.On("Get", mock.Anything, userID).Return(flatProfile("0"), nil)
	lots.On("OpenLotsBySymbol", mock.Anything, userID, "AAPL").Return([]entities.Lot{lot}, nil)
	quotes.On("Price", mock.Anything, userID, "AAPL").Return(decimal.Zero, false, nil)

	engine := newTestEngine(lots, quotes, profiles)
	_, err := engine.SimulateSell(context.Background(), userID, "AAPL", dec("5"), asOf)

	var missing *QuoteMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "AAPL", missing.Symbol)
}

func TestSimulateSellInvalidInput(t *testing.T) {
	engine := newTestEngine(new(mockLotStore), new(mockQuoteSource), new(mockProfileStore))

	_, err := engine.SimulateSell(context.Background(), uuid.New(), "", dec("1"), asOf)
	require.Error(t, err)

	_, err = engine.SimulateSell(context.Background(), uuid.New(), "AAPL", dec("0"), asOf)
	require.Error(t, err)

	_, err = engine.SimulateSell(context.Background(), uuid.New(), "AAPL", dec("-3"), asOf)
	require.Error(t, err)
}

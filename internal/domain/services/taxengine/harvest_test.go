package taxengine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

func lossResult(symbol string, gain string, daysToLT int) entities.LotResult {
	return entities.LotResult{
		LotID:          uuid.New(),
		Symbol:         symbol,
		Quantity:       dec("1"),
		Price:          dec("100"),
		Term:           entities.TermShort,
		UnrealizedGain: dec(gain),
		DaysToLT:       daysToLT,
	}
}

func TestSelectCandidatesFiltersByMinLoss(t *testing.T) {
	results := []entities.LotResult{
		lossResult("A", "-50", 10),
		lossResult("B", "-40", 10),
		lossResult("C", "-30", 10),
		lossResult("D", "25", 10), // gain, never a candidate
	}

	candidates := SelectCandidates(results, 10, dec("50"))
	require.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].Symbol)
	assert.True(t, candidates[0].UnrealizedLoss.Equal(dec("50")))

	// A threshold of 40 admits the boundary case.
	candidates = SelectCandidates(results, 10, dec("40"))
	require.Len(t, candidates, 2)
	assert.Equal(t, "A", candidates[0].Symbol)
	assert.Equal(t, "B", candidates[1].Symbol)
}

func TestSelectCandidatesRanking(t *testing.T) {
	results := []entities.LotResult{
		lossResult("SMALL", "-10", 5),
		lossResult("BIG", "-500", 300),
		lossResult("TIE1", "-100", 200),
		lossResult("TIE2", "-100", 20), // converts sooner, ranks first on tie
	}

	candidates := SelectCandidates(results, 10, dec("0"))
	require.Len(t, candidates, 4)
	assert.Equal(t, "BIG", candidates[0].Symbol)
	assert.Equal(t, "TIE2", candidates[1].Symbol)
	assert.Equal(t, "TIE1", candidates[2].Symbol)
	assert.Equal(t, "SMALL", candidates[3].Symbol)
}

func TestSelectCandidatesLimit(t *testing.T) {
	results := []entities.LotResult{
		lossResult("A", "-300", 1),
		lossResult("B", "-200", 1),
		lossResult("C", "-100", 1),
	}

	candidates := SelectCandidates(results, 2, dec("0"))
	require.Len(t, candidates, 2)
	assert.Equal(t, "A", candidates[0].Symbol)
	assert.Equal(t, "B", candidates[1].Symbol)
}

func TestSelectCandidatesSkipsUnpriced(t *testing.T) {
	unpriced := lossResult("GHOST", "-999", 1)
	unpriced.QuoteMissing = true
	unpriced.UnrealizedGain = dec("0")

	candidates := SelectCandidates([]entities.LotResult{unpriced, lossResult("A", "-60", 1)}, 10, dec("0"))
	require.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].Symbol)
}

func TestHarvestCandidatesValidation(t *testing.T) {
	engine := newTestEngine(new(mockLotStore), new(mockQuoteSource), new(mockProfileStore))

	_, err := engine.HarvestCandidates(context.Background(), uuid.New(), 0, dec("50"), asOf)
	require.Error(t, err)

	_, err = engine.HarvestCandidates(context.Background(), uuid.New(), 10, dec("-1"), asOf)
	require.Error(t, err)
}

package taxengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

var asOf = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return asOf.AddDate(0, 0, -n)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		purchaseDate time.Time
		wantTerm     entities.Term
		wantDaysToLT int
	}{
		{"same day", daysAgo(0), entities.TermShort, 366},
		{"one day held", daysAgo(1), entities.TermShort, 365},
		{"day before threshold", daysAgo(365), entities.TermShort, 1},
		{"exactly at threshold", daysAgo(366), entities.TermLong, 0},
		{"well past threshold", daysAgo(1000), entities.TermLong, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, daysToLT, err := Classify(tt.purchaseDate, asOf)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerm, term)
			assert.Equal(t, tt.wantDaysToLT, daysToLT)
		})
	}
}

func TestClassifyShortTermInvariant(t *testing.T) {
	// For every short-term lot, held days plus remaining days equals the
	// threshold exactly.
	for held := 0; held < LongTermThresholdDays; held++ {
		term, daysToLT, err := Classify(daysAgo(held), asOf)
		require.NoError(t, err)
		require.Equal(t, entities.TermShort, term)
		require.Equal(t, LongTermThresholdDays, held+daysToLT, "held %d days", held)
	}
}

func TestClassifyFuturePurchaseDate(t *testing.T) {
	_, _, err := Classify(asOf.AddDate(0, 0, 1), asOf)
	require.Error(t, err)

	var invalidDate *InvalidDateError
	require.ErrorAs(t, err, &invalidDate)
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	// A purchase late in the evening counts the same as one at midnight.
	evening := daysAgo(366).Add(23 * time.Hour)
	term, _, err := Classify(evening, asOf)
	require.NoError(t, err)
	assert.Equal(t, entities.TermLong, term)
}

func TestHoldingDays(t *testing.T) {
	assert.Equal(t, 0, HoldingDays(asOf, asOf))
	assert.Equal(t, 365, HoldingDays(daysAgo(365), asOf))
	assert.Equal(t, -1, HoldingDays(asOf.AddDate(0, 0, 1), asOf))
}

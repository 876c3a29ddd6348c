package taxengine

import (
	"time"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// LongTermThresholdDays is the holding period at which a lot becomes
// long-term. 366 rather than 365 keeps a buffer against leap-year off-by-one
// at the more-than-one-year boundary.
const LongTermThresholdDays = 366

// midnightUTC truncates a timestamp to its calendar date.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HoldingDays returns the whole calendar days between purchase and as-of.
func HoldingDays(purchaseDate, asOf time.Time) int {
	return int(midnightUTC(asOf).Sub(midnightUTC(purchaseDate)).Hours() / 24)
}

// Classify maps a purchase date and an as-of date to a holding term and the
// days remaining until long-term conversion. Classification is a pure
// function of the two dates; tax rates play no part in it.
func Classify(purchaseDate, asOf time.Time) (entities.Term, int, error) {
	days := HoldingDays(purchaseDate, asOf)
	if days < 0 {
		return "", 0, &InvalidDateError{PurchaseDate: purchaseDate, AsOf: asOf}
	}
	if days >= LongTermThresholdDays {
		return entities.TermLong, 0, nil
	}
	return entities.TermShort, LongTermThresholdDays - days, nil
}

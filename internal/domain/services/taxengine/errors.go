package taxengine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The engine surfaces every failure verbatim; each one reflects a
// caller-correctable input problem or a genuinely missing prerequisite.

// InvalidDateError reports a purchase date that lies in the future of the
// as-of date.
type InvalidDateError struct {
	PurchaseDate time.Time
	AsOf         time.Time
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("purchase date %s is after as-of date %s",
		e.PurchaseDate.Format("2006-01-02"), e.AsOf.Format("2006-01-02"))
}

// InvalidProfileError reports a tax profile with a negative rate or a
// negative carry-forward balance.
type InvalidProfileError struct {
	Field string
	Value decimal.Decimal
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid tax profile: %s must not be negative, got %s", e.Field, e.Value)
}

// QuoteMissingError reports that no current price is known for a symbol.
type QuoteMissingError struct {
	Symbol string
}

func (e *QuoteMissingError) Error() string {
	return fmt.Sprintf("no price available for %s", e.Symbol)
}

// InsufficientQuantityError reports a simulated sale that exceeds the open
// quantity held for the symbol. No partial simulation is ever returned.
type InsufficientQuantityError struct {
	Symbol    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("requested %s exceeds available %s shares for %s",
		e.Requested, e.Available, e.Symbol)
}

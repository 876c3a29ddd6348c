package taxengine

import (
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// ValidateProfile rejects profiles with negative rates or a negative
// carry-forward balance.
func ValidateProfile(p *entities.TaxProfile) error {
	checks := []struct {
		field string
		value decimal.Decimal
	}{
		{"federal_st_rate", p.FederalSTRate},
		{"federal_lt_rate", p.FederalLTRate},
		{"state_st_rate", p.StateSTRate},
		{"state_lt_rate", p.StateLTRate},
		{"niit_rate", p.NIITRate},
		{"carry_forward_losses", p.CarryForwardLosses},
	}
	for _, c := range checks {
		if c.value.IsNegative() {
			return &InvalidProfileError{Field: c.field, Value: c.value}
		}
	}
	return nil
}

// EstimateTax estimates the tax on a signed gain and returns the updated
// carry-forward loss balance.
//
// A non-positive gain is taxed at zero and its magnitude is added to the
// returned balance so callers can consume it against gains later in the same
// pass; nothing is persisted here. A positive gain is first offset by the
// incoming balance, then taxed at the term's combined federal+state rate,
// with the NIIT surcharge applied to the same taxable remainder regardless
// of term.
func EstimateTax(gain decimal.Decimal, term entities.Term, p *entities.TaxProfile, carryForwardIn decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if err := ValidateProfile(p); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if carryForwardIn.IsNegative() {
		return decimal.Zero, decimal.Zero, &InvalidProfileError{Field: "carry_forward_in", Value: carryForwardIn}
	}

	if !gain.IsPositive() {
		return decimal.Zero, carryForwardIn.Add(gain.Neg()), nil
	}

	offset := decimal.Min(gain, carryForwardIn)
	taxable := gain.Sub(offset)
	carryForwardOut := carryForwardIn.Sub(offset)

	rate := p.FederalSTRate.Add(p.StateSTRate)
	if term == entities.TermLong {
		rate = p.FederalLTRate.Add(p.StateLTRate)
	}
	tax := taxable.Mul(rate)
	if p.NIITRate.IsPositive() {
		tax = tax.Add(taxable.Mul(p.NIITRate))
	}
	return tax, carryForwardOut, nil
}

// SavingsIfHarvested is the tax that would be avoided by realizing the lot's
// loss now instead of holding it. Zero for lots not at a loss.
func SavingsIfHarvested(gain decimal.Decimal, term entities.Term, p *entities.TaxProfile) decimal.Decimal {
	if !gain.IsNegative() {
		return decimal.Zero
	}
	rate := p.TotalSTRate()
	if term == entities.TermLong {
		rate = p.TotalLTRate()
	}
	return gain.Neg().Mul(rate)
}

package taxengine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// Summary aggregates the user's full valuation into a portfolio summary. The
// profile is read once and that snapshot drives both the per-lot pass and the
// aggregate pass.
func (e *Engine) Summary(ctx context.Context, userID uuid.UUID, asOf time.Time) (*entities.Summary, error) {
	defer metrics.ObserveEngineOp("summary", time.Now())

	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	results, err := e.valuation(ctx, userID, asOf, profile)
	if err != nil {
		return nil, err
	}
	return Summarize(results, profile)
}

// Summarize folds a LotResult sequence into a Summary. The gross figures are
// plain sums of the per-lot isolated estimates; the net tax is recomputed in
// a single shared pass so the profile's carry-forward balance is applied once
// across the whole portfolio, never once per lot. Lots with a missing quote
// contribute nothing to the money figures and are listed in MissingQuotes.
func Summarize(results []entities.LotResult, profile *entities.TaxProfile) (*entities.Summary, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	s := &entities.Summary{
		PreTaxValue:                   decimal.Zero,
		TotalUnrealizedGain:           decimal.Zero,
		GrossTaxOnGains:               decimal.Zero,
		GrossPotentialSavingsOnLosses: decimal.Zero,
	}
	missing := make(map[string]struct{})
	priced := make([]entities.LotResult, 0, len(results))
	for _, r := range results {
		if r.QuoteMissing {
			missing[r.Symbol] = struct{}{}
			continue
		}
		priced = append(priced, r)
		s.PreTaxValue = s.PreTaxValue.Add(r.Quantity.Mul(r.Price))
		s.TotalUnrealizedGain = s.TotalUnrealizedGain.Add(r.UnrealizedGain)
		s.GrossTaxOnGains = s.GrossTaxOnGains.Add(r.EstTaxLiability)
		s.GrossPotentialSavingsOnLosses = s.GrossPotentialSavingsOnLosses.Add(r.EstTaxSavings)
	}

	s.NaiveNetTaxIfLiquidatedNow = netTaxIfLiquidated(priced, profile)
	s.AfterTaxValueIfLiquidatedNow = s.PreTaxValue.Sub(s.NaiveNetTaxIfLiquidatedNow)

	for sym := range missing {
		s.MissingQuotes = append(s.MissingQuotes, sym)
	}
	sort.Strings(s.MissingQuotes)
	return s, nil
}

// netTaxIfLiquidated computes the economically correct aggregate tax of
// liquidating everything now. Losses offset gains within the same term
// bucket first, then cross-term; the carry-forward balance is then applied
// against whichever bucket is taxed higher (short-term on a tie), once for
// the whole portfolio.
func netTaxIfLiquidated(results []entities.LotResult, profile *entities.TaxProfile) decimal.Decimal {
	var stNet, ltNet decimal.Decimal
	for _, r := range results {
		if r.Term == entities.TermLong {
			ltNet = ltNet.Add(r.UnrealizedGain)
		} else {
			stNet = stNet.Add(r.UnrealizedGain)
		}
	}

	// Cross-term netting: a bucket's excess losses reduce the other bucket.
	if stNet.IsNegative() && ltNet.IsPositive() {
		ltNet = ltNet.Add(stNet)
		stNet = decimal.Zero
	} else if ltNet.IsNegative() && stNet.IsPositive() {
		stNet = stNet.Add(ltNet)
		ltNet = decimal.Zero
	}

	stRate := profile.TotalSTRate()
	ltRate := profile.TotalLTRate()

	carry := profile.CarryForwardLosses
	apply := func(net decimal.Decimal) decimal.Decimal {
		if !net.IsPositive() || !carry.IsPositive() {
			return net
		}
		offset := decimal.Min(net, carry)
		carry = carry.Sub(offset)
		return net.Sub(offset)
	}
	if stRate.GreaterThanOrEqual(ltRate) {
		stNet = apply(stNet)
		ltNet = apply(ltNet)
	} else {
		ltNet = apply(ltNet)
		stNet = apply(stNet)
	}

	tax := decimal.Zero
	if stNet.IsPositive() {
		tax = tax.Add(stNet.Mul(stRate))
	}
	if ltNet.IsPositive() {
		tax = tax.Add(ltNet.Mul(ltRate))
	}
	return tax
}

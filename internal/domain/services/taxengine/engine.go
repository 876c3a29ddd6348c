package taxengine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/internal/domain/repositories"
	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// Engine computes tax-lot valuations, portfolio summaries, harvest
// candidates, and what-if sale projections. It is stateless per invocation:
// every call reads a consistent snapshot from its collaborators and returns a
// value without mutating anything.
type Engine struct {
	lots     repositories.LotStore
	quotes   repositories.QuoteSource
	profiles repositories.ProfileStore
	logger   *zap.Logger
}

// NewEngine creates a new valuation engine.
func NewEngine(lots repositories.LotStore, quotes repositories.QuoteSource, profiles repositories.ProfileStore, logger *zap.Logger) *Engine {
	return &Engine{
		lots:     lots,
		quotes:   quotes,
		profiles: profiles,
		logger:   logger,
	}
}

// resolveAsOf defaults a zero as-of date to now.
func resolveAsOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return time.Now()
	}
	return asOf
}

// Valuation produces one LotResult per open lot of the user, in the stable
// FIFO order the lot store returns them. Lots whose symbol has no current
// quote are returned with QuoteMissing set and zeroed money figures instead
// of failing the whole batch.
func (e *Engine) Valuation(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]entities.LotResult, error) {
	defer metrics.ObserveEngineOp("valuation", time.Now())

	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.valuation(ctx, userID, asOf, profile)
}

// valuation is the shared valuation pass. The caller supplies the profile so
// that callers composing several passes (Summary) read it exactly once and
// every figure in the response reflects the same profile snapshot.
func (e *Engine) valuation(ctx context.Context, userID uuid.UUID, asOf time.Time, profile *entities.TaxProfile) ([]entities.LotResult, error) {
	asOf = resolveAsOf(asOf)

	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	lots, err := e.lots.OpenLots(ctx, userID)
	if err != nil {
		return nil, err
	}
	prices, err := e.prices(ctx, userID, lots)
	if err != nil {
		return nil, err
	}

	results := make([]entities.LotResult, 0, len(lots))
	for _, lot := range lots {
		price, ok := prices[lot.Symbol]
		res, err := valueLot(lot, price, ok, profile, asOf)
		if err != nil {
			return nil, err
		}
		if res.QuoteMissing {
			e.logger.Warn("quote missing for lot, returning zeroed figures",
				zap.String("symbol", lot.Symbol), zap.String("lot_id", lot.ID.String()))
		}
		results = append(results, res)
	}
	return results, nil
}

// prices fetches the latest quote for every distinct symbol in the lot set.
func (e *Engine) prices(ctx context.Context, userID uuid.UUID, lots []entities.Lot) (map[string]decimal.Decimal, error) {
	seen := make(map[string]struct{}, len(lots))
	symbols := make([]string, 0, len(lots))
	for _, lot := range lots {
		if _, ok := seen[lot.Symbol]; ok {
			continue
		}
		seen[lot.Symbol] = struct{}{}
		symbols = append(symbols, lot.Symbol)
	}
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	return e.quotes.Prices(ctx, userID, symbols)
}

// valueLot computes the per-lot valuation in isolation: the estimate answers
// "what if only this lot were sold today", so the profile's carry-forward
// balance is not consumed here. The portfolio-level net figure applies it
// once across the whole portfolio instead (see Summarize).
func valueLot(lot entities.Lot, price decimal.Decimal, hasPrice bool, profile *entities.TaxProfile, asOf time.Time) (entities.LotResult, error) {
	term, daysToLT, err := Classify(lot.PurchaseDate, asOf)
	if err != nil {
		return entities.LotResult{}, err
	}

	res := entities.LotResult{
		LotID:        lot.ID,
		Symbol:       lot.Symbol,
		Quantity:     lot.Quantity,
		CostPerShare: lot.CostPerShare,
		PurchaseDate: lot.PurchaseDate,
		HoldingDays:  HoldingDays(lot.PurchaseDate, asOf),
		Term:         term,
		DaysToLT:     daysToLT,
	}
	if !hasPrice {
		res.QuoteMissing = true
		return res, nil
	}

	gain := price.Sub(lot.CostPerShare).Mul(lot.Quantity)
	tax, _, err := EstimateTax(gain, term, profile, decimal.Zero)
	if err != nil {
		return entities.LotResult{}, err
	}

	res.Price = price
	res.UnrealizedGain = gain
	res.EstTaxLiability = tax
	res.AfterTaxValue = lot.Quantity.Mul(price).Sub(tax)
	res.EstTaxSavings = SavingsIfHarvested(gain, term, profile)
	return res, nil
}

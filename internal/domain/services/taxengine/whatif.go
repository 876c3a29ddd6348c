package taxengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// SimulateSell projects a FIFO sale of quantity shares of symbol without
// mutating any lot. Lots are consumed oldest purchase first; each consumed
// slice carries its own term classification and tax estimate, with the
// profile's carry-forward balance threaded through the slices in order.
//
// The simulation fails whole: if the open quantity cannot cover the request
// the caller gets an InsufficientQuantityError and no partial breakdown.
func (e *Engine) SimulateSell(ctx context.Context, userID uuid.UUID, symbol string, quantity decimal.Decimal, asOf time.Time) (*entities.WhatIfSell, error) {
	defer metrics.ObserveEngineOp("whatif_sell", time.Now())
	asOf = resolveAsOf(asOf)

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("sell quantity must be positive, got %s", quantity)
	}

	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	lots, err := e.lots.OpenLotsBySymbol(ctx, userID, symbol)
	if err != nil {
		return nil, err
	}

	available := decimal.Zero
	for _, lot := range lots {
		available = available.Add(lot.Quantity)
	}
	if available.LessThan(quantity) {
		return nil, &InsufficientQuantityError{Symbol: symbol, Requested: quantity, Available: available}
	}

	price, ok, err := e.quotes.Price(ctx, userID, symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &QuoteMissingError{Symbol: symbol}
	}

	out := &entities.WhatIfSell{
		Symbol:       symbol,
		SellQuantity: quantity,
		AsofPrice:    price,
		RealizedGain: decimal.Zero,
		EstTax:       decimal.Zero,
	}

	remaining := quantity
	carry := profile.CarryForwardLosses
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		use := decimal.Min(remaining, lot.Quantity)

		term, _, err := Classify(lot.PurchaseDate, asOf)
		if err != nil {
			return nil, err
		}
		gain := price.Sub(lot.CostPerShare).Mul(use)
		tax, carryOut, err := EstimateTax(gain, term, profile, carry)
		if err != nil {
			return nil, err
		}
		carry = carryOut

		out.LotsConsumed = append(out.LotsConsumed, entities.ConsumedLot{
			LotID:        lot.ID,
			QtyUsed:      use,
			Term:         term,
			RealizedGain: gain,
			EstTax:       tax,
		})
		out.RealizedGain = out.RealizedGain.Add(gain)
		out.EstTax = out.EstTax.Add(tax)
		remaining = remaining.Sub(use)
	}

	return out, nil
}

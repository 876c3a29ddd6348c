package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Term is the holding-period classification of a lot.
type Term string

const (
	TermShort Term = "short"
	TermLong  Term = "long"
)

// LotResult is the per-lot valuation produced by the engine. It is derived,
// never stored. When QuoteMissing is set the price and all derived money
// figures are zero and the caller should warn rather than aggregate them.
type LotResult struct {
	LotID           uuid.UUID       `json:"lot_id"`
	Symbol          string          `json:"symbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	CostPerShare    decimal.Decimal `json:"cost_per_share"`
	PurchaseDate    time.Time       `json:"purchase_date"`
	HoldingDays     int             `json:"holding_days"`
	Term            Term            `json:"term"`
	UnrealizedGain  decimal.Decimal `json:"unrealized_gain"`
	EstTaxLiability decimal.Decimal `json:"est_tax_liability"`
	AfterTaxValue   decimal.Decimal `json:"after_tax_value"`
	EstTaxSavings   decimal.Decimal `json:"est_tax_savings"`
	DaysToLT        int             `json:"days_to_lt"`
	QuoteMissing    bool            `json:"quote_missing,omitempty"`
}

// Summary aggregates a full LotResult sequence. The net tax figure is the
// authoritative portfolio-level aggregate; it is not a strict sum of the
// per-lot isolated estimates when losses or carry-forward are present.
type Summary struct {
	PreTaxValue                   decimal.Decimal `json:"pre_tax_value"`
	TotalUnrealizedGain           decimal.Decimal `json:"total_unrealized_gain"`
	GrossTaxOnGains               decimal.Decimal `json:"gross_tax_on_gains"`
	GrossPotentialSavingsOnLosses decimal.Decimal `json:"gross_potential_savings_on_losses"`
	NaiveNetTaxIfLiquidatedNow    decimal.Decimal `json:"naive_net_tax_if_liquidated_now"`
	AfterTaxValueIfLiquidatedNow  decimal.Decimal `json:"after_tax_value_if_liquidated_now"`
	MissingQuotes                 []string        `json:"missing_quotes,omitempty"`
}

// HarvestCandidate is a loss lot proposed for tax-loss harvesting.
// UnrealizedLoss is a positive magnitude.
type HarvestCandidate struct {
	LotID          uuid.UUID       `json:"lot_id"`
	Symbol         string          `json:"symbol"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	Quantity       decimal.Decimal `json:"quantity"`
	CostPerShare   decimal.Decimal `json:"cost_per_share"`
	Price          decimal.Decimal `json:"price"`
	UnrealizedLoss decimal.Decimal `json:"unrealized_loss"`
	DaysToLT       int             `json:"days_to_lt"`
}

// ConsumedLot is one FIFO slice of a simulated (or executed) sale.
type ConsumedLot struct {
	LotID        uuid.UUID       `json:"lot_id"`
	QtyUsed      decimal.Decimal `json:"qty_used"`
	Term         Term            `json:"term"`
	RealizedGain decimal.Decimal `json:"realized_gain"`
	EstTax       decimal.Decimal `json:"est_tax"`
}

// WhatIfSell is the ephemeral projection of a FIFO sale. Producing one never
// mutates any lot.
type WhatIfSell struct {
	Symbol       string          `json:"symbol"`
	SellQuantity decimal.Decimal `json:"sell_quantity"`
	AsofPrice    decimal.Decimal `json:"asof_price"`
	RealizedGain decimal.Decimal `json:"realized_gain"`
	EstTax       decimal.Decimal `json:"est_tax"`
	LotsConsumed []ConsumedLot   `json:"lots_consumed"`
}

// Money values are kept at full precision through every computation and only
// rounded here, at the response boundary. Round-half-even to cents.

// Rounded returns a copy with money figures rounded for presentation.
func (r LotResult) Rounded() LotResult {
	r.Price = r.Price.RoundBank(4)
	r.UnrealizedGain = r.UnrealizedGain.RoundBank(2)
	r.EstTaxLiability = r.EstTaxLiability.RoundBank(2)
	r.AfterTaxValue = r.AfterTaxValue.RoundBank(2)
	r.EstTaxSavings = r.EstTaxSavings.RoundBank(2)
	return r
}

// Rounded returns a copy with money figures rounded for presentation.
func (s Summary) Rounded() Summary {
	s.PreTaxValue = s.PreTaxValue.RoundBank(2)
	s.TotalUnrealizedGain = s.TotalUnrealizedGain.RoundBank(2)
	s.GrossTaxOnGains = s.GrossTaxOnGains.RoundBank(2)
	s.GrossPotentialSavingsOnLosses = s.GrossPotentialSavingsOnLosses.RoundBank(2)
	s.NaiveNetTaxIfLiquidatedNow = s.NaiveNetTaxIfLiquidatedNow.RoundBank(2)
	s.AfterTaxValueIfLiquidatedNow = s.AfterTaxValueIfLiquidatedNow.RoundBank(2)
	return s
}

// Rounded returns a copy with money figures rounded for presentation.
func (c HarvestCandidate) Rounded() HarvestCandidate {
	c.Price = c.Price.RoundBank(4)
	c.UnrealizedLoss = c.UnrealizedLoss.RoundBank(2)
	return c
}

// Rounded returns a copy with money figures rounded for presentation.
func (w WhatIfSell) Rounded() WhatIfSell {
	w.AsofPrice = w.AsofPrice.RoundBank(4)
	w.RealizedGain = w.RealizedGain.RoundBank(2)
	w.EstTax = w.EstTax.RoundBank(2)
	consumed := make([]ConsumedLot, len(w.LotsConsumed))
	for i, c := range w.LotsConsumed {
		c.RealizedGain = c.RealizedGain.RoundBank(2)
		c.EstTax = c.EstTax.RoundBank(2)
		consumed[i] = c
	}
	w.LotsConsumed = consumed
	return w
}

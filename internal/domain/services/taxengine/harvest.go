package taxengine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// HarvestCandidates returns up to limit loss lots whose loss magnitude is at
// least minLoss, largest loss first. No side effects.
func (e *Engine) HarvestCandidates(ctx context.Context, userID uuid.UUID, limit int, minLoss decimal.Decimal, asOf time.Time) ([]entities.HarvestCandidate, error) {
	defer metrics.ObserveEngineOp("harvest", time.Now())

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if minLoss.IsNegative() {
		return nil, fmt.Errorf("min_loss must not be negative, got %s", minLoss)
	}

	results, err := e.Valuation(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	return SelectCandidates(results, limit, minLoss), nil
}

// SelectCandidates filters lot results down to harvestable losses and ranks
// them: descending by loss magnitude, ties broken by fewest days to
// long-term conversion (harvesting before conversion keeps the loss
// offsetting at short-term rates).
func SelectCandidates(results []entities.LotResult, limit int, minLoss decimal.Decimal) []entities.HarvestCandidate {
	candidates := make([]entities.HarvestCandidate, 0, len(results))
	for _, r := range results {
		if r.QuoteMissing || !r.UnrealizedGain.IsNegative() {
			continue
		}
		loss := r.UnrealizedGain.Neg()
		if loss.LessThan(minLoss) {
			continue
		}
		candidates = append(candidates, entities.HarvestCandidate{
			LotID:          r.LotID,
			Symbol:         r.Symbol,
			PurchaseDate:   r.PurchaseDate,
			Quantity:       r.Quantity,
			CostPerShare:   r.CostPerShare,
			Price:          r.Price,
			UnrealizedLoss: loss,
			DaysToLT:       r.DaysToLT,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].UnrealizedLoss.Equal(candidates[j].UnrealizedLoss) {
			return candidates[i].UnrealizedLoss.GreaterThan(candidates[j].UnrealizedLoss)
		}
		return candidates[i].DaysToLT < candidates[j].DaysToLT
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

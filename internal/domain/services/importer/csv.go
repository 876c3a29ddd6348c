package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
	"github.com/taxfolio/taxfolio/internal/domain/repositories"
	"github.com/taxfolio/taxfolio/pkg/metrics"
)

// Columns the import file must carry, in any order. "account" is optional.
var requiredColumns = []string{"symbol", "quantity", "cost_per_share", "purchase_date"}

// Service parses lot CSV files and stores the parsed lots in one batch.
type Service struct {
	lots   repositories.LotStore
	logger *zap.Logger
}

// NewService creates a new lot import service
func NewService(lots repositories.LotStore, logger *zap.Logger) *Service {
	return &Service{
		lots:   lots,
		logger: logger,
	}
}

// Import parses the CSV stream and creates every lot atomically. A single bad
// row fails the whole import with a row-numbered error so nothing is half
// loaded.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	now := time.Now().UTC()
	var lots []entities.Lot
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", rowNum, err)
		}

		lot, err := parseRow(record, cols, userID, now)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", rowNum, err)
		}
		lots = append(lots, lot)
	}

	if len(lots) == 0 {
		return 0, fmt.Errorf("CSV contains no lot rows")
	}

	count, err := s.lots.CreateBatch(ctx, lots)
	if err != nil {
		return 0, err
	}

	metrics.LotsImportedTotal.Add(float64(count))
	s.logger.Info("Lots imported", zap.String("user_id", userID.String()), zap.Int("count", count))
	return count, nil
}

func parseRow(record []string, cols map[string]int, userID uuid.UUID, now time.Time) (entities.Lot, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	symbol := strings.ToUpper(field("symbol"))
	if symbol == "" {
		return entities.Lot{}, fmt.Errorf("symbol must not be empty")
	}

	quantity, err := decimal.NewFromString(field("quantity"))
	if err != nil {
		return entities.Lot{}, fmt.Errorf("invalid quantity %q", field("quantity"))
	}
	if !quantity.IsPositive() {
		return entities.Lot{}, fmt.Errorf("quantity must be positive, got %s", quantity)
	}

	costPerShare, err := decimal.NewFromString(field("cost_per_share"))
	if err != nil {
		return entities.Lot{}, fmt.Errorf("invalid cost_per_share %q", field("cost_per_share"))
	}
	if costPerShare.IsNegative() {
		return entities.Lot{}, fmt.Errorf("cost_per_share must not be negative, got %s", costPerShare)
	}

	purchaseDate, err := time.Parse("2006-01-02", field("purchase_date"))
	if err != nil {
		return entities.Lot{}, fmt.Errorf("invalid purchase_date %q, expected YYYY-MM-DD", field("purchase_date"))
	}
	if purchaseDate.After(now) {
		return entities.Lot{}, fmt.Errorf("purchase_date %s is in the future", field("purchase_date"))
	}

	lot := entities.Lot{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       symbol,
		Quantity:     quantity,
		CostPerShare: costPerShare,
		PurchaseDate: purchaseDate,
		CreatedAt:    now,
	}
	if account := field("account"); account != "" {
		lot.Account = &account
	}
	return lot, nil
}

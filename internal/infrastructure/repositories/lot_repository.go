package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// fifoOrder keeps lot reads deterministic: oldest purchase first, with
// creation time and id breaking ties between same-day purchases.
const fifoOrder = "ORDER BY purchase_date ASC, created_at ASC, id ASC"

// LotRepository implements the lot store interface using PostgreSQL
type LotRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *sqlx.DB, logger *zap.Logger) *LotRepository {
	return &LotRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a single lot
func (r *LotRepository) Create(ctx context.Context, lot *entities.Lot) error {
	query := `
		INSERT INTO lots (id, user_id, symbol, quantity, cost_per_share, purchase_date, account, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		lot.ID,
		lot.UserID,
		lot.Symbol,
		lot.Quantity,
		lot.CostPerShare,
		lot.PurchaseDate,
		lot.Account,
		lot.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create lot", zap.Error(err), zap.String("symbol", lot.Symbol))
		return fmt.Errorf("failed to create lot: %w", err)
	}
	return nil
}

// CreateBatch inserts a set of lots atomically. Either every lot lands or
// none does.
func (r *LotRepository) CreateBatch(ctx context.Context, lots []entities.Lot) (int, error) {
	if len(lots) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO lots (id, user_id, symbol, quantity, cost_per_share, purchase_date, account, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, lot := range lots {
		if _, err := tx.ExecContext(ctx, query,
			lot.ID,
			lot.UserID,
			lot.Symbol,
			lot.Quantity,
			lot.CostPerShare,
			lot.PurchaseDate,
			lot.Account,
			lot.CreatedAt,
		); err != nil {
			return 0, fmt.Errorf("failed to create lot in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lot batch: %w", err)
	}

	r.logger.Debug("Lot batch created", zap.Int("count", len(lots)))
	return len(lots), nil
}

// OpenLots returns all of the user's open lots in stable FIFO order.
func (r *LotRepository) OpenLots(ctx context.Context, userID uuid.UUID) ([]entities.Lot, error) {
	var lots []entities.Lot
	query := `
		SELECT id, user_id, symbol, quantity, cost_per_share, purchase_date, account, created_at
		FROM lots WHERE user_id = $1 ` + fifoOrder

	if err := r.db.SelectContext(ctx, &lots, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return lots, nil
}

// OpenLotsBySymbol returns the user's open lots for one symbol in stable
// FIFO order.
func (r *LotRepository) OpenLotsBySymbol(ctx context.Context, userID uuid.UUID, symbol string) ([]entities.Lot, error) {
	var lots []entities.Lot
	query := `
		SELECT id, user_id, symbol, quantity, cost_per_share, purchase_date, account, created_at
		FROM lots WHERE user_id = $1 AND symbol = $2 ` + fifoOrder

	if err := r.db.SelectContext(ctx, &lots, query, userID, symbol); err != nil {
		return nil, fmt.Errorf("failed to list lots for symbol: %w", err)
	}
	return lots, nil
}

// Delete removes a single lot owned by the user
func (r *LotRepository) Delete(ctx context.Context, userID, lotID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lots WHERE id = $1 AND user_id = $2`, lotID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Symbols returns the distinct symbols of the user's open lots.
func (r *LotRepository) Symbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var symbols []string
	query := `SELECT DISTINCT symbol FROM lots WHERE user_id = $1 ORDER BY symbol`

	if err := r.db.SelectContext(ctx, &symbols, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	return symbols, nil
}

// saleAction is what ApplySale does to one locked lot row.
type saleAction int

const (
	saleReduce saleAction = iota
	saleClose
)

// planSlice decides how a consumed slice lands on its stored lot. A slice
// that drains the lot must DELETE the row rather than update it to zero,
// because the schema's quantity > 0 check rejects a zero quantity at UPDATE
// time.
func planSlice(stored, used decimal.Decimal) (saleAction, error) {
	if stored.LessThan(used) {
		return 0, fmt.Errorf("stored quantity %s is less than planned %s", stored, used)
	}
	if stored.Equal(used) {
		return saleClose, nil
	}
	return saleReduce, nil
}

// ApplySale consumes the given lot slices inside one transaction. Each lot
// row is locked, its quantity checked against the slice, then decremented or
// deleted when fully consumed. Any mismatch between the planned slice and the
// stored lot aborts the whole sale.
func (r *LotRepository) ApplySale(ctx context.Context, userID uuid.UUID, consumed []entities.ConsumedLot) error {
	if len(consumed) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range consumed {
		var stored decimal.Decimal
		err := tx.QueryRowxContext(ctx,
			`SELECT quantity FROM lots WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			c.LotID, userID).Scan(&stored)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("lot %s no longer exists: %w", c.LotID, ErrNotFound)
			}
			return fmt.Errorf("failed to lock lot %s: %w", c.LotID, err)
		}

		action, err := planSlice(stored, c.QtyUsed)
		if err != nil {
			return fmt.Errorf("lot %s: %w", c.LotID, err)
		}

		switch action {
		case saleClose:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM lots WHERE id = $1 AND user_id = $2`,
				c.LotID, userID); err != nil {
				return fmt.Errorf("failed to close lot %s: %w", c.LotID, err)
			}
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE lots SET quantity = quantity - $1 WHERE id = $2 AND user_id = $3`,
				c.QtyUsed, c.LotID, userID); err != nil {
				return fmt.Errorf("failed to consume lot %s: %w", c.LotID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sale: %w", err)
	}

	r.logger.Debug("Sale applied", zap.String("user_id", userID.String()), zap.Int("lots", len(consumed)))
	return nil
}

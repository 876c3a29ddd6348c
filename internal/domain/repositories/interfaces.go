package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// LotStore provides access to a user's open tax lots. Implementations must
// return lots in stable FIFO order (ascending purchase date, then creation)
// and must read them at a single consistent point so a concurrent sale never
// produces a half-updated view.
type LotStore interface {
	OpenLots(ctx context.Context, userID uuid.UUID) ([]entities.Lot, error)
	OpenLotsBySymbol(ctx context.Context, userID uuid.UUID, symbol string) ([]entities.Lot, error)
	Create(ctx context.Context, lot *entities.Lot) error
	CreateBatch(ctx context.Context, lots []entities.Lot) (int, error)
	Delete(ctx context.Context, userID, lotID uuid.UUID) error
	Symbols(ctx context.Context, userID uuid.UUID) ([]string, error)
	// ApplySale consumes the given FIFO slices inside a single transaction,
	// decrementing each lot's quantity and deleting lots that reach zero.
	// It fails without side effects if any lot changed since the slices
	// were computed.
	ApplySale(ctx context.Context, userID uuid.UUID, consumed []entities.ConsumedLot) error
}

// QuoteSource holds the latest known price per symbol for a user. The engine
// only ever reads it.
type QuoteSource interface {
	Price(ctx context.Context, userID uuid.UUID, symbol string) (decimal.Decimal, bool, error)
	Prices(ctx context.Context, userID uuid.UUID, symbols []string) (map[string]decimal.Decimal, error)
	Upsert(ctx context.Context, userID uuid.UUID, quotes map[string]decimal.Decimal) error
	Symbols(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ProfileStore persists per-user tax profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*entities.TaxProfile, error)
	Upsert(ctx context.Context, profile *entities.TaxProfile) error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

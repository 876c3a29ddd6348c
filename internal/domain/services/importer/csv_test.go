package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxfolio/taxfolio/internal/domain/entities"
)

// fakeLotStore records batch creates and fails everything else.
type fakeLotStore struct {
	created []entities.Lot
}

func (f *fakeLotStore) OpenLots(ctx context.Context, userID uuid.UUID) ([]entities.Lot, error) {
	return nil, nil
}
func (f *fakeLotStore) OpenLotsBySymbol(ctx context.Context, userID uuid.UUID, symbol string) ([]entities.Lot, error) {
	return nil, nil
}
func (f *fakeLotStore) Create(ctx context.Context, lot *entities.Lot) error { return nil }
func (f *fakeLotStore) CreateBatch(ctx context.Context, lots []entities.Lot) (int, error) {
	f.created = append(f.created, lots...)
	return len(lots), nil
}
func (f *fakeLotStore) Delete(ctx context.Context, userID, lotID uuid.UUID) error { return nil }
func (f *fakeLotStore) Symbols(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}
func (f *fakeLotStore) ApplySale(ctx context.Context, userID uuid.UUID, consumed []entities.ConsumedLot) error {
	return nil
}

func TestImport(t *testing.T) {
	csv := strings.Join([]string{
		"symbol,quantity,cost_per_share,purchase_date,account",
		"aapl,10,150.25,2023-01-15,brokerage",
		"MSFT,2.5,300,2024-06-30,",
	}, "\n")

	store := &fakeLotStore{}
	svc := NewService(store, zap.NewNop())

	count, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, store.created, 2)

	first := store.created[0]
	assert.Equal(t, "AAPL", first.Symbol)
	assert.True(t, first.Quantity.Equal(decimal.RequireFromString("10")))
	assert.True(t, first.CostPerShare.Equal(decimal.RequireFromString("150.25")))
	assert.Equal(t, "2023-01-15", first.PurchaseDate.Format("2006-01-02"))
	require.NotNil(t, first.Account)
	assert.Equal(t, "brokerage", *first.Account)

	second := store.created[1]
	assert.Equal(t, "MSFT", second.Symbol)
	assert.Nil(t, second.Account)
}

func TestImportColumnOrderIndependent(t *testing.T) {
	csv := "purchase_date,symbol,cost_per_share,quantity\n2023-01-15,IBM,120,3\n"

	store := &fakeLotStore{}
	svc := NewService(store, zap.NewNop())

	count, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "IBM", store.created[0].Symbol)
}

func TestImportRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{
			"missing column",
			"symbol,quantity,cost_per_share\nAAPL,10,150\n",
			"missing required column",
		},
		{
			"negative quantity",
			"symbol,quantity,cost_per_share,purchase_date\nAAPL,-10,150,2023-01-15\n",
			"quantity must be positive",
		},
		{
			"zero quantity",
			"symbol,quantity,cost_per_share,purchase_date\nAAPL,0,150,2023-01-15\n",
			"quantity must be positive",
		},
		{
			"bad price",
			"symbol,quantity,cost_per_share,purchase_date\nAAPL,10,abc,2023-01-15\n",
			"invalid cost_per_share",
		},
		{
			"bad date",
			"symbol,quantity,cost_per_share,purchase_date\nAAPL,10,150,15/01/2023\n",
			"invalid purchase_date",
		},
		{
			"future date",
			"symbol,quantity,cost_per_share,purchase_date\nAAPL,10,150,2099-01-01\n",
			"in the future",
		},
		{
			"empty file",
			"symbol,quantity,cost_per_share,purchase_date\n",
			"no lot rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeLotStore{}
			svc := NewService(store, zap.NewNop())

			_, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			// Nothing lands when any row is bad.
			assert.Empty(t, store.created)
		})
	}
}

func TestImportReportsRowNumber(t *testing.T) {
	csv := strings.Join([]string{
		"symbol,quantity,cost_per_share,purchase_date",
		"AAPL,10,150,2023-01-15",
		"MSFT,oops,300,2024-06-30",
	}, "\n")

	svc := NewService(&fakeLotStore{}, zap.NewNop())
	_, err := svc.Import(context.Background(), uuid.New(), strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

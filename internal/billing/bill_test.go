package billing

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srijanmgr/chiyapasal/internal/catalog"
	"github.com/srijanmgr/chiyapasal/internal/models"
	"github.com/srijanmgr/chiyapasal/internal/ordering"
	"github.com/srijanmgr/chiyapasal/internal/storage"
)

func newTestStore(t *testing.T) *storage.OrderStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return storage.NewOrderStore(db)
}

func TestMergeTwoOrders(t *testing.T) {
	// Table "4": {Frooti x1} and {Frooti x2, Water x1} merge into
	// Frooti qty 3 @30 = 90.00, Water qty 1 @25 = 25.00, total 115.00.
	orders := []models.Order{
		{
			ID: "o1", TableNumber: "4", Status: models.StatusPending,
			Total: decimal.NewFromInt(30),
			Items: []models.OrderItem{
				{ItemID: "5", Name: "Frooti", Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
			},
		},
		{
			ID: "o2", TableNumber: "4", Status: models.StatusPending,
			Total: decimal.NewFromInt(85),
			Items: []models.OrderItem{
				{ItemID: "5", Name: "Frooti", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
				{ItemID: "6", Name: "Water", Quantity: 1, UnitPrice: decimal.NewFromInt(25)},
			},
		},
	}

	bill := Merge("4", orders)
	require.Equal(t, "4", bill.TableNumber)
	require.Equal(t, 2, bill.OrderCount)
	require.Len(t, bill.Lines, 2)

	require.Equal(t, "Frooti", bill.Lines[0].ItemName)
	require.EqualValues(t, 3, bill.Lines[0].Quantity)
	require.Equal(t, "30.00", bill.Lines[0].UnitPrice.StringFixed(2))
	require.Equal(t, "90.00", bill.Lines[0].LineTotal.StringFixed(2))

	require.Equal(t, "Water", bill.Lines[1].ItemName)
	require.EqualValues(t, 1, bill.Lines[1].Quantity)
	require.Equal(t, "25.00", bill.Lines[1].LineTotal.StringFixed(2))

	require.Equal(t, "115.00", bill.Total.StringFixed(2))
}

func TestMergeGrandTotalMatchesOrderTotals(t *testing.T) {
	store := newTestStore(t)
	svc := &ordering.Service{Catalog: catalog.Default(), Store: store}
	ctx := context.Background()

	carts := []map[string]uint{
		{"1": 2, "6": 1},
		{"5": 3},
		{"1": 1, "5": 1, "9": 2},
	}
	sum := decimal.Zero
	for _, cart := range carts {
		order, err := svc.Place(ctx, "4", cart)
		require.NoError(t, err)
		sum = sum.Add(order.Total)
	}

	gen := &Generator{Store: store}
	bill, err := gen.ForTable(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, 3, bill.OrderCount)
	require.True(t, bill.Total.Equal(sum), "bill total %s != sum of order totals %s", bill.Total, sum)
}

func TestMergeFirstPriceWins(t *testing.T) {
	orders := []models.Order{
		{
			ID: "o1", TableNumber: "4", Status: models.StatusPending,
			Items: []models.OrderItem{
				{ItemID: "5", Name: "Frooti", Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
			},
		},
		{
			ID: "o2", TableNumber: "4", Status: models.StatusPending,
			Items: []models.OrderItem{
				{ItemID: "5", Name: "Frooti", Quantity: 1, UnitPrice: decimal.NewFromInt(32)},
			},
		},
	}

	bill := Merge("4", orders)
	require.Len(t, bill.Lines, 1)
	require.EqualValues(t, 2, bill.Lines[0].Quantity)
	require.Equal(t, "30.00", bill.Lines[0].UnitPrice.StringFixed(2))
	require.Equal(t, "60.00", bill.Total.StringFixed(2))
}

func TestEmptyTableYieldsEmptyBill(t *testing.T) {
	store := newTestStore(t)
	gen := &Generator{Store: store}

	bill, err := gen.ForTable(context.Background(), "12")
	require.NoError(t, err)
	require.Equal(t, "12", bill.TableNumber)
	require.Empty(t, bill.Lines)
	require.Equal(t, 0, bill.OrderCount)
	require.True(t, bill.Total.IsZero())
}

func TestPaidOrdersExcludedFromBill(t *testing.T) {
	store := newTestStore(t)
	svc := &ordering.Service{Catalog: catalog.Default(), Store: store}
	ctx := context.Background()

	_, err := svc.Place(ctx, "4", map[string]uint{"5": 1})
	require.NoError(t, err)

	settled, err := store.MarkPaidByTable(ctx, "4")
	require.NoError(t, err)
	require.EqualValues(t, 1, settled)

	gen := &Generator{Store: store}
	bill, err := gen.ForTable(ctx, "4")
	require.NoError(t, err)
	require.Empty(t, bill.Lines)
	require.True(t, bill.Total.IsZero())
}

package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/srijanmgr/chiyapasal/internal/models"
	"github.com/srijanmgr/chiyapasal/internal/storage"
)

type Line struct {
	ItemName  string          `json:"item_name"`
	Quantity  uint            `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Bill struct {
	TableNumber string          `json:"table_number"`
	Lines       []Line          `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	OrderCount  int             `json:"order_count"`
}

// Merge folds the pending orders of one table into a single itemized
// bill. Line items are merged by item name: quantities are summed and the
// unit price of the first occurrence wins (prices are stable per item
// within a sitting). Lines keep first-seen order. No orders yields an
// empty bill, not an error.
func Merge(tableNumber string, orders []models.Order) Bill {
	bill := Bill{
		TableNumber: tableNumber,
		Total:       decimal.Zero,
		OrderCount:  len(orders),
	}

	index := make(map[string]int)
	for _, order := range orders {
		for _, item := range order.Items {
			i, ok := index[item.Name]
			if !ok {
				i = len(bill.Lines)
				index[item.Name] = i
				bill.Lines = append(bill.Lines, Line{
					ItemName:  item.Name,
					UnitPrice: item.UnitPrice,
				})
			}
			bill.Lines[i].Quantity += item.Quantity
		}
	}

	for i := range bill.Lines {
		line := &bill.Lines[i]
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		bill.Total = bill.Total.Add(line.LineTotal)
	}

	return bill
}

type Generator struct {
	Store *storage.OrderStore
}

func (g *Generator) ForTable(ctx context.Context, tableNumber string) (Bill, error) {
	orders, err := g.Store.ListPendingByTable(ctx, tableNumber)
	if err != nil {
		return Bill{}, err
	}
	return Merge(tableNumber, orders), nil
}

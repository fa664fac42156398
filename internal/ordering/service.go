package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srijanmgr/chiyapasal/internal/catalog"
	"github.com/srijanmgr/chiyapasal/internal/logging"
	"github.com/srijanmgr/chiyapasal/internal/models"
	"github.com/srijanmgr/chiyapasal/internal/notify"
	"github.com/srijanmgr/chiyapasal/internal/storage"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrMissingTable = errors.New("table number missing")
	ErrUnknownItem  = errors.New("unknown menu item")
)

// Build assembles an order from the customer's quantity selections.
// Quantities are keyed by menu item id; zero means "not ordered". The
// unit price is frozen into each line item at this point, so later menu
// price changes never alter a stored bill.
func Build(cat *catalog.Catalog, tableNumber string, quantities map[string]uint) (*models.Order, error) {
	if tableNumber == "" {
		return nil, ErrMissingTable
	}

	for id, qty := range quantities {
		if qty == 0 {
			continue
		}
		if _, ok := cat.Find(id); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
		}
	}

	id := uuid.NewString()
	total := decimal.Zero
	var items []models.OrderItem
	// Walk the catalog rather than the map so line items keep menu order.
	for _, it := range cat.Items() {
		qty := quantities[it.ID]
		if qty == 0 {
			continue
		}
		items = append(items, models.OrderItem{
			OrderID:   id,
			ItemID:    it.ID,
			Name:      it.Name,
			Quantity:  qty,
			UnitPrice: it.Price,
		})
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	return &models.Order{
		ID:          id,
		TableNumber: tableNumber,
		Items:       items,
		Total:       total,
		Status:      models.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

type Service struct {
	Catalog  *catalog.Catalog
	Store    *storage.OrderStore
	Notifier notify.Notifier
}

// Place builds, persists and announces an order. Notification is
// best-effort: a failed publish is logged and the order stands, since the
// dashboard's polling timer recovers lost signals.
func (s *Service) Place(ctx context.Context, tableNumber string, quantities map[string]uint) (*models.Order, error) {
	order, err := Build(s.Catalog, tableNumber, quantities)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Append(ctx, order); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifyNewOrder(ctx, order.TableNumber); err != nil {
			logging.FromContext(ctx).Warn("order_notify_failed", "order_id", order.ID, "error", err)
		}
	}

	return order, nil
}

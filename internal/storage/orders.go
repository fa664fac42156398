package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/srijanmgr/chiyapasal/internal/models"
)

// ErrNotFound is returned by DeleteByID when no order has the given id.
var ErrNotFound = errors.New("order not found")

// StorageError wraps any failure of the backing medium. Callers surface
// it as a generic "try again" condition and abort without partial state.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

type OrderStore struct {
	DB *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{DB: db}
}

// Append persists a new order together with its line items.
func (s *OrderStore) Append(ctx context.Context, order *models.Order) error {
	if err := s.DB.WithContext(ctx).Create(order).Error; err != nil {
		return storageErr("append order", err)
	}
	return nil
}

// ListAll returns every stored order, paid ones included, in no
// particular order.
func (s *OrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").Find(&orders).Error; err != nil {
		return nil, storageErr("list orders", err)
	}
	return orders, nil
}

// ListPending returns all pending orders across tables.
func (s *OrderStore) ListPending(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("status = ?", models.StatusPending).
		Find(&orders).Error; err != nil {
		return nil, storageErr("list pending orders", err)
	}
	return orders, nil
}

// ListPendingByTable returns the pending orders of one table.
func (s *OrderStore) ListPendingByTable(ctx context.Context, tableNumber string) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND table_number = ?", models.StatusPending, tableNumber).
		Find(&orders).Error; err != nil {
		return nil, storageErr("list pending orders for table", err)
	}
	return orders, nil
}

// MarkPaidByTable settles every pending order of a table in one
// transaction and reports how many orders were settled. A table with no
// pending orders settles zero orders and is not an error.
func (s *OrderStore) MarkPaidByTable(ctx context.Context, tableNumber string) (int64, error) {
	var settled int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("status = ? AND table_number = ?", models.StatusPending, tableNumber).
			Update("status", models.StatusPaid)
		if res.Error != nil {
			return res.Error
		}
		settled = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, storageErr("mark table paid", err)
	}
	return settled, nil
}

// DeleteByID removes a single order and its line items; used by staff to
// correct a mistaken order.
func (s *OrderStore) DeleteByID(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&models.OrderItem{}, "order_id = ?", id).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("delete order", err)
	}
	return nil
}

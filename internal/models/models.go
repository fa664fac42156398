package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

type Order struct {
	ID          string          `gorm:"primaryKey;size:36"               json:"id"`
	TableNumber string          `gorm:"index;not null"                   json:"table_number"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;references:ID" json:"items"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"total"`
	Status      string          `gorm:"index;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time       `gorm:"not null"                         json:"created_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   string          `gorm:"index;size:36;not null"      json:"order_id"`
	ItemID    string          `gorm:"not null"                    json:"item_id"`
	Name      string          `gorm:"not null"                    json:"name"`
	Quantity  uint            `gorm:"not null;check:quantity>0"   json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

type StaffUser struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null"   json:"value"`
}

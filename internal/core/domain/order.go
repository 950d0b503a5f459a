package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Editable reports whether an order in this status still accepts
// line-item mutations. Shipped, delivered and cancelled orders are
// terminal and read-only.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusNew || s == OrderStatusProcessing
}

type Order struct {
	ID          int64           `gorm:"primaryKey"`
	OrderNumber string          `gorm:"size:50;uniqueIndex;not null"`
	CustomerID  int64           `gorm:"not null"`
	Customer    *Customer       `gorm:"foreignKey:CustomerID"`
	OrderDate   time.Time       `gorm:"not null"`
	Status      OrderStatus     `gorm:"size:50;not null;default:new"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Version     int             `gorm:"not null;default:0"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

// ItemForProduct returns the line item holding the given product, or nil.
// At most one line item per (order, product) pair exists.
func (o *Order) ItemForProduct(productID int64) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

type OrderItem struct {
	ID        int64           `gorm:"primaryKey"`
	OrderID   int64           `gorm:"not null;uniqueIndex:ux_order_items_order_product"`
	ProductID int64           `gorm:"not null;uniqueIndex:ux_order_items_order_product"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	Quantity  decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}

func (OrderItem) TableName() string { return "order_items" }

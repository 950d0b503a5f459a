package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/order-management/internal/core/domain"
)

// Store is the persistence boundary of the mutation engine. Every
// mutating operation runs inside WithinTx; the repository and ledger
// handed to fn share one transaction, which is committed only when fn
// returns nil and rolled back otherwise.
type Store interface {
	// FindOrder loads an order with its items (each carrying its product)
	// and its customer, outside any transaction. Returns nil if absent.
	FindOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	WithinTx(ctx context.Context, fn func(orders OrderRepository, inventory InventoryLedger) error) error
}

type OrderRepository interface {
	// FindWithItems loads the order aggregate for update. Returns nil if absent.
	FindWithItems(ctx context.Context, orderID int64) (*domain.Order, error)

	// FindCustomer returns nil if the customer does not exist.
	FindCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)

	Insert(ctx context.Context, order *domain.Order) error

	InsertItem(ctx context.Context, item *domain.OrderItem) error

	UpdateItem(ctx context.Context, item *domain.OrderItem) error

	DeleteItem(ctx context.Context, itemID int64) error

	// RecalculateTotal re-sums the order's line-item subtotals from durable
	// storage (not from the in-memory collection), assigns the result to
	// order.TotalAmount, bumps the version counter and persists both.
	RecalculateTotal(ctx context.Context, order *domain.Order) error
}

type InventoryLedger interface {
	// LockProduct reads the product row with a pessimistic write lock held
	// for the remainder of the enclosing transaction.
	LockProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// Reserve decrements on-hand quantity under the row lock, failing with
	// ProductNotAvailableError when stock is insufficient.
	Reserve(ctx context.Context, productID int64, quantity decimal.Decimal) (*domain.Product, error)

	// Release returns previously reserved quantity to stock.
	Release(ctx context.Context, productID int64, quantity decimal.Decimal) (*domain.Product, error)
}

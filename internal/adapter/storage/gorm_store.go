package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rl1809/order-management/internal/core/domain"
	"github.com/rl1809/order-management/internal/port"
)

// GormStore implements port.Store over a MySQL-backed gorm connection.
// The repository and ledger views handed out by WithinTx share the same
// transaction, so the product row lock taken by the ledger covers every
// write the repository performs before commit.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return findOrderWithItems(ctx, s.db, orderID)
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(orders port.OrderRepository, inventory port.InventoryLedger) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderRepository{db: tx}, &inventoryLedger{db: tx})
	})
}

// Migrate creates or updates the five relations. Intended for tests and
// local bootstrap; production schemas are managed externally.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&domain.Category{},
		&domain.Product{},
		&domain.Customer{},
		&domain.Order{},
		&domain.OrderItem{},
	)
}

func findOrderWithItems(ctx context.Context, db *gorm.DB, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.Product").
		Preload("Customer").
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return &order, nil
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) FindWithItems(ctx context.Context, orderID int64) (*domain.Order, error) {
	return findOrderWithItems(ctx, r.db, orderID)
}

func (r *orderRepository) FindCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).First(&customer, customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", customerID, err)
	}
	return &customer, nil
}

func (r *orderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("insert order %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (r *orderRepository) InsertItem(ctx context.Context, item *domain.OrderItem) error {
	if err := r.db.WithContext(ctx).Omit("Product").Create(item).Error; err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	err := r.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"quantity": item.Quantity,
			"subtotal": item.Subtotal,
		}).Error
	if err != nil {
		return fmt.Errorf("update order item %d: %w", item.ID, err)
	}
	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID int64) error {
	if err := r.db.WithContext(ctx).Delete(&domain.OrderItem{}, itemID).Error; err != nil {
		return fmt.Errorf("delete order item %d: %w", itemID, err)
	}
	return nil
}

// RecalculateTotal sums subtotals from the order_items table rather than
// the in-memory item set, so partial writes already flushed in this
// transaction are always accounted for.
func (r *orderRepository) RecalculateTotal(ctx context.Context, order *domain.Order) error {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(SUM(subtotal), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return fmt.Errorf("sum subtotals for order %d: %w", order.ID, err)
	}

	order.TotalAmount = total
	order.Version++
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"total_amount": order.TotalAmount,
			"version":      order.Version,
		}).Error
	if err != nil {
		return fmt.Errorf("update total for order %d: %w", order.ID, err)
	}
	return nil
}

type inventoryLedger struct {
	db *gorm.DB
}

// LockProduct issues SELECT ... FOR UPDATE; the lock is held until the
// enclosing transaction ends.
func (l *inventoryLedger) LockProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var product domain.Product
	err := l.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("lock product %d: %w", productID, err)
	}
	return &product, nil
}

func (l *inventoryLedger) Reserve(ctx context.Context, productID int64, quantity decimal.Decimal) (*domain.Product, error) {
	product, err := l.LockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Quantity.LessThan(quantity) {
		return nil, &domain.ProductNotAvailableError{ProductID: productID, Available: product.Quantity}
	}
	product.Quantity = product.Quantity.Sub(quantity)
	if err := l.saveQuantity(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (l *inventoryLedger) Release(ctx context.Context, productID int64, quantity decimal.Decimal) (*domain.Product, error) {
	product, err := l.LockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.Quantity = product.Quantity.Add(quantity)
	if err := l.saveQuantity(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (l *inventoryLedger) saveQuantity(ctx context.Context, product *domain.Product) error {
	err := l.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Update("quantity", product.Quantity).Error
	if err != nil {
		return fmt.Errorf("update quantity for product %d: %w", product.ID, err)
	}
	return nil
}

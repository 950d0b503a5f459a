package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/order-management/internal/core/domain"
	"github.com/rl1809/order-management/internal/pkg/metrics"
	"github.com/rl1809/order-management/internal/port"
)

// OrderService is the order mutation engine. Every mutation follows the
// same protocol: acquire the per-order advisory lock, load the aggregate,
// validate status, adjust inventory under the product row lock, mutate
// the line-item set, recalculate the total from storage, commit, reload
// the committed aggregate. The lock release and the rollback on failure
// are both guaranteed.
type OrderService struct {
	store  port.Store
	locks  port.LockManager
	tracer trace.Tracer
}

func NewOrderService(store port.Store, locks port.LockManager) *OrderService {
	return &OrderService{
		store:  store,
		locks:  locks,
		tracer: otel.Tracer("order-service"),
	}
}

// CreateOrder inserts an empty order for an existing customer. The order
// number is derived from the current date and the customer identity.
func (s *OrderService) CreateOrder(ctx context.Context, customerID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	var order *domain.Order
	err := s.store.WithinTx(ctx, func(orders port.OrderRepository, _ port.InventoryLedger) error {
		customer, err := orders.FindCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return &domain.CustomerNotFoundError{CustomerID: customerID}
		}

		order = &domain.Order{
			OrderNumber: orderNumber(customerID, time.Now()),
			CustomerID:  customerID,
			OrderDate:   time.Now(),
			Status:      domain.OrderStatusNew,
			TotalAmount: decimal.Zero,
		}
		return orders.Insert(ctx, order)
	})
	if err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("create order failed")
		return nil, err
	}
	return s.store.FindOrder(ctx, order.ID)
}

// GetOrder loads the full aggregate: items with their products, plus the
// customer.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &domain.OrderNotFoundError{OrderID: orderID}
	}
	return order, nil
}

// AddItem reserves quantity units of the product and adds them to the
// order. A repeated product folds into the existing line item, keeping
// the unit price snapshotted when the line was first created. Returns
// the refreshed order, the affected line item and whether it was newly
// created.
func (s *OrderService) AddItem(ctx context.Context, orderID, productID int64, quantity decimal.Decimal) (*domain.Order, *domain.OrderItem, bool, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.AddItem")
	defer span.End()
	timer := prometheus.NewTimer(metrics.MutationDuration.WithLabelValues("add_item"))
	defer timer.ObserveDuration()

	if quantity.Sign() <= 0 {
		return nil, nil, false, domain.ErrInvalidQuantity
	}

	var (
		item    *domain.OrderItem
		created bool
	)
	order, err := s.mutate(ctx, "add_item", orderID, productID, func(order *domain.Order, orders port.OrderRepository, inventory port.InventoryLedger) error {
		product, err := inventory.Reserve(ctx, productID, quantity)
		if err != nil {
			return err
		}

		if existing := order.ItemForProduct(productID); existing != nil {
			existing.Quantity = existing.Quantity.Add(quantity)
			existing.Subtotal = existing.Quantity.Mul(existing.UnitPrice)
			if err := orders.UpdateItem(ctx, existing); err != nil {
				return err
			}
			item = existing
			return nil
		}

		created = true
		item = &domain.OrderItem{
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
			Subtotal:  quantity.Mul(product.Price),
		}
		return orders.InsertItem(ctx, item)
	})
	if err != nil {
		return nil, nil, false, err
	}

	if fresh := order.ItemForProduct(productID); fresh != nil {
		item = fresh
	}
	return order, item, created, nil
}

// UpdateItem sets the line item's quantity to newQuantity, reserving the
// positive delta or releasing the negative one. A zero delta is a no-op
// that still recalculates and commits.
func (s *OrderService) UpdateItem(ctx context.Context, orderID, productID int64, newQuantity decimal.Decimal) (*domain.Order, *domain.OrderItem, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateItem")
	defer span.End()
	timer := prometheus.NewTimer(metrics.MutationDuration.WithLabelValues("update_item"))
	defer timer.ObserveDuration()

	if newQuantity.Sign() <= 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}

	order, err := s.mutate(ctx, "update_item", orderID, productID, func(order *domain.Order, orders port.OrderRepository, inventory port.InventoryLedger) error {
		item := order.ItemForProduct(productID)
		if item == nil {
			return &domain.ProductNotFoundError{ProductID: productID}
		}

		delta := newQuantity.Sub(item.Quantity)
		switch {
		case delta.Sign() > 0:
			if _, err := inventory.Reserve(ctx, productID, delta); err != nil {
				return err
			}
		case delta.Sign() < 0:
			if _, err := inventory.Release(ctx, productID, delta.Neg()); err != nil {
				return err
			}
		}

		item.Quantity = newQuantity
		item.Subtotal = newQuantity.Mul(item.UnitPrice)
		return orders.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, nil, err
	}
	return order, order.ItemForProduct(productID), nil
}

// RemoveItem deletes the line item and returns its full reserved quantity
// to inventory.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, productID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.RemoveItem")
	defer span.End()
	timer := prometheus.NewTimer(metrics.MutationDuration.WithLabelValues("remove_item"))
	defer timer.ObserveDuration()

	return s.mutate(ctx, "remove_item", orderID, productID, func(order *domain.Order, orders port.OrderRepository, inventory port.InventoryLedger) error {
		item := order.ItemForProduct(productID)
		if item == nil {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if _, err := inventory.Release(ctx, productID, item.Quantity); err != nil {
			return err
		}
		return orders.DeleteItem(ctx, item.ID)
	})
}

// mutate runs the shared protocol skeleton around fn: advisory lock,
// aggregate load, status validation, fn, total recalculation, commit,
// reload. fn performs the operation-specific inventory and line-item
// work inside the transaction.
func (s *OrderService) mutate(ctx context.Context, operation string, orderID, productID int64, fn func(order *domain.Order, orders port.OrderRepository, inventory port.InventoryLedger) error) (*domain.Order, error) {
	lockKey := orderLockKey(orderID)
	if !s.locks.Acquire(ctx, lockKey) {
		metrics.LockContentionTotal.Inc()
		metrics.MutationsTotal.WithLabelValues(operation, "conflict").Inc()
		return nil, &domain.ConcurrentModificationError{OrderID: orderID}
	}
	defer s.locks.Release(ctx, lockKey)

	err := s.store.WithinTx(ctx, func(orders port.OrderRepository, inventory port.InventoryLedger) error {
		order, err := orders.FindWithItems(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return &domain.OrderNotFoundError{OrderID: orderID}
		}
		if !order.Status.Editable() {
			return &domain.OrderClosedError{OrderID: orderID, Status: order.Status}
		}

		if err := fn(order, orders, inventory); err != nil {
			return err
		}
		return orders.RecalculateTotal(ctx, order)
	})
	if err != nil {
		metrics.MutationsTotal.WithLabelValues(operation, "error").Inc()
		log.Error().
			Err(err).
			Str("operation", operation).
			Int64("order_id", orderID).
			Int64("product_id", productID).
			Msg("order mutation rolled back")
		return nil, err
	}

	order, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &domain.OrderNotFoundError{OrderID: orderID}
	}
	metrics.MutationsTotal.WithLabelValues(operation, "success").Inc()
	return order, nil
}

func orderLockKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

// orderNumber derives the human-readable order number from the creation
// date and the customer identity. Uniqueness is enforced by the database
// index on orders.order_number.
func orderNumber(customerID int64, now time.Time) string {
	return fmt.Sprintf("ORD-%s-%06d", now.Format("20060102"), customerID)
}

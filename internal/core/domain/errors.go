package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity rejects non-positive quantities before any
// inventory reservation is attempted.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

type OrderNotFoundError struct {
	OrderID int64
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

type CustomerNotFoundError struct {
	CustomerID int64
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer %d not found", e.CustomerID)
}

// ProductNotAvailableError carries the quantity actually in stock so
// callers can correct the request.
type ProductNotAvailableError struct {
	ProductID int64
	Available decimal.Decimal
}

func (e *ProductNotAvailableError) Error() string {
	return fmt.Sprintf("product %d not available: %s in stock", e.ProductID, e.Available)
}

type OrderClosedError struct {
	OrderID int64
	Status  OrderStatus
}

func (e *OrderClosedError) Error() string {
	return fmt.Sprintf("order %d has status %q and cannot be modified", e.OrderID, e.Status)
}

type ConcurrentModificationError struct {
	OrderID int64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("order %d is being modified by another request", e.OrderID)
}

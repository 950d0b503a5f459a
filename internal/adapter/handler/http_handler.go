package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rl1809/order-management/internal/core/domain"
)

// OrderService is the slice of the mutation engine the HTTP layer needs.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID int64) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	AddItem(ctx context.Context, orderID, productID int64, quantity decimal.Decimal) (*domain.Order, *domain.OrderItem, bool, error)
	UpdateItem(ctx context.Context, orderID, productID int64, quantity decimal.Decimal) (*domain.Order, *domain.OrderItem, error)
	RemoveItem(ctx context.Context, orderID, productID int64) (*domain.Order, error)
}

// Pinger reports storage reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HTTPHandler struct {
	orders OrderService
	db     Pinger
}

func NewHTTPHandler(orders OrderService, db Pinger) *HTTPHandler {
	return &HTTPHandler{orders: orders, db: db}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/orders", h.CreateOrder)
	mux.HandleFunc("/api/v1/orders/", h.GetOrder)
	mux.HandleFunc("/api/v1/orders/add-item", h.AddItem)
	mux.HandleFunc("/api/v1/orders/update-item", h.UpdateItem)
	mux.HandleFunc("/api/v1/orders/remove-item", h.RemoveItem)
	mux.HandleFunc("/health", h.HealthCheck)
}

type CreateOrderRequest struct {
	CustomerID int64 `json:"customer_id"`
}

type ItemRequest struct {
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type RemoveItemRequest struct {
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error             string           `json:"error"`
	Message           string           `json:"message"`
	OrderID           int64            `json:"order_id,omitempty"`
	ProductID         int64            `json:"product_id,omitempty"`
	CustomerID        int64            `json:"customer_id,omitempty"`
	AvailableQuantity string `json:"available_quantity,omitempty"`
	CurrentStatus     string `json:"current_status,omitempty"`
}

type OrderItemResponse struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID           int64               `json:"id"`
	OrderNumber  string              `json:"order_number"`
	CustomerID   int64               `json:"customer_id"`
	CustomerName string              `json:"customer_name,omitempty"`
	Status       domain.OrderStatus  `json:"status"`
	TotalAmount  string              `json:"total_amount"`
	Version      int                 `json:"version"`
	OrderDate    time.Time           `json:"order_date"`
	OrderItems   []OrderItemResponse `json:"order_items"`
}

// Quantities carry three decimal places and money amounts two,
// regardless of trailing zeros, matching the column scales.
func formatQuantity(d decimal.Decimal) string { return d.StringFixed(3) }

func formatMoney(d decimal.Decimal) string { return d.StringFixed(2) }

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID <= 0 {
		writeValidationError(w, "customer_id must be a positive integer")
		return
	}

	log.Info().Int64("customer_id", req.CustomerID).Msg("create_order.request")
	order, err := h.orders.CreateOrder(r.Context(), req.CustomerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.Info().Int64("order_id", order.ID).Str("order_number", order.OrderNumber).Msg("create_order.success")
	writeJSON(w, http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "order created",
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"customer_id":  order.CustomerID,
			"status":       order.Status,
			"total_amount": formatMoney(order.TotalAmount),
			"order_date":   order.OrderDate,
		},
	})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || orderID <= 0 {
		writeValidationError(w, "order id must be a positive integer")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := OrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		TotalAmount: formatMoney(order.TotalAmount),
		Version:     order.Version,
		OrderDate:   order.OrderDate,
		OrderItems:  make([]OrderItemResponse, 0, len(order.Items)),
	}
	if order.Customer != nil {
		resp.CustomerName = order.Customer.Name
	}
	for _, item := range order.Items {
		ir := OrderItemResponse{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  formatQuantity(item.Quantity),
			UnitPrice: formatMoney(item.UnitPrice),
			Subtotal:  formatMoney(item.Subtotal),
		}
		if item.Product != nil {
			ir.ProductName = item.Product.Name
		}
		resp.OrderItems = append(resp.OrderItems, ir)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeItemRequest(w, r)
	if !ok {
		return
	}

	log.Info().
		Int64("order_id", req.OrderID).
		Int64("product_id", req.ProductID).
		Str("quantity", req.Quantity.String()).
		Msg("add_item.request")

	order, item, created, err := h.orders.AddItem(r.Context(), req.OrderID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	message := "item quantity increased"
	if created {
		message = "item added to order"
	}
	log.Info().
		Int64("order_id", order.ID).
		Int64("product_id", item.ProductID).
		Bool("is_new_item", created).
		Str("total_quantity", item.Quantity.String()).
		Msg("add_item.success")

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    itemMutationData(order, item, &created),
	})
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := decodeItemRequest(w, r)
	if !ok {
		return
	}

	log.Info().
		Int64("order_id", req.OrderID).
		Int64("product_id", req.ProductID).
		Str("quantity", req.Quantity.String()).
		Msg("update_item.request")

	order, item, err := h.orders.UpdateItem(r.Context(), req.OrderID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.Info().Int64("order_id", order.ID).Int64("product_id", item.ProductID).Msg("update_item.success")
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "item quantity updated",
		Data:    itemMutationData(order, item, nil),
	})
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RemoveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID <= 0 || req.ProductID <= 0 {
		writeValidationError(w, "order_id and product_id must be positive integers")
		return
	}

	log.Info().Int64("order_id", req.OrderID).Int64("product_id", req.ProductID).Msg("remove_item.request")
	order, err := h.orders.RemoveItem(r.Context(), req.OrderID, req.ProductID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.Info().Int64("order_id", order.ID).Int64("product_id", req.ProductID).Msg("remove_item.success")
	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "item removed from order",
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"order_status": order.Status,
			"order_total":  formatMoney(order.TotalAmount),
			"product_id":   req.ProductID,
		},
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

func decodeItemRequest(w http.ResponseWriter, r *http.Request) (ItemRequest, bool) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return req, false
	}
	if req.OrderID <= 0 || req.ProductID <= 0 {
		writeValidationError(w, "order_id and product_id must be positive integers")
		return req, false
	}
	if req.Quantity.Sign() <= 0 {
		writeValidationError(w, "quantity must be greater than zero")
		return req, false
	}
	return req, true
}

func itemMutationData(order *domain.Order, item *domain.OrderItem, created *bool) map[string]interface{} {
	data := map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"order_status": order.Status,
		"order_total":  formatMoney(order.TotalAmount),
		"item_id":      item.ID,
		"product_id":   item.ProductID,
		"quantity":     formatQuantity(item.Quantity),
		"unit_price":   formatMoney(item.UnitPrice),
		"subtotal":     formatMoney(item.Subtotal),
	}
	if created != nil {
		data["is_new_item"] = *created
	}
	return data
}

// writeDomainError maps each domain error kind to a status code and a
// machine-readable error tag. Anything unrecognized is surfaced as a
// generic internal error without leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		orderNotFound    *domain.OrderNotFoundError
		productNotFound  *domain.ProductNotFoundError
		customerNotFound *domain.CustomerNotFoundError
		notAvailable     *domain.ProductNotAvailableError
		orderClosed      *domain.OrderClosedError
		conflict         *domain.ConcurrentModificationError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeValidationError(w, "quantity must be greater than zero")
	case errors.As(err, &orderNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "order_not_found",
			Message: err.Error(),
			OrderID: orderNotFound.OrderID,
		})
	case errors.As(err, &productNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:     "product_not_found",
			Message:   err.Error(),
			ProductID: productNotFound.ProductID,
		})
	case errors.As(err, &customerNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:      "customer_not_found",
			Message:    err.Error(),
			CustomerID: customerNotFound.CustomerID,
		})
	case errors.As(err, &notAvailable):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:             "product_not_available",
			Message:           err.Error(),
			ProductID:         notAvailable.ProductID,
			AvailableQuantity: formatQuantity(notAvailable.Available),
		})
	case errors.As(err, &orderClosed):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:         "order_closed",
			Message:       err.Error(),
			OrderID:       orderClosed.OrderID,
			CurrentStatus: string(orderClosed.Status),
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "concurrent_modification",
			Message: err.Error(),
			OrderID: conflict.OrderID,
		})
	default:
		log.Error().Err(err).Msg("unexpected error")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_server_error",
			Message: "an internal error occurred",
		})
	}
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

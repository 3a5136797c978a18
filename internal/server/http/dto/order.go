package dto

import (
	"time"

	"github.com/shipfire/payflow/internal/domain/model"
)

// CreateOrderRequest is the payload for opening an order.
type CreateOrderRequest struct {
	Amount    int64  `json:"amount" binding:"required"`
	Currency  string `json:"currency"`
	Credits   int64  `json:"credits"`
	Interval  string `json:"interval"`
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
}

// OrderResponse is the public projection of an order.
type OrderResponse struct {
	OrderNo   string     `json:"order_no"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Credits   int64      `json:"credits"`
	Interval  string     `json:"interval"`
	Status    string     `json:"status"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewOrderResponse maps a domain order to its public projection.
func NewOrderResponse(order *model.Order) OrderResponse {
	return OrderResponse{
		OrderNo:   order.OrderNo,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Credits:   order.Credits,
		Interval:  string(order.Interval),
		Status:    string(order.Status),
		PaidAt:    order.PaidAt,
		CreatedAt: order.CreatedAt,
	}
}

// BalanceResponse reports the user's credit balance.
type BalanceResponse struct {
	Credits int64 `json:"credits"`
}

package model

import "time"

// OrderStatus describes the payment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusDeleted OrderStatus = "deleted"
)

// OrderInterval describes billing cadence of the purchased product.
type OrderInterval string

const (
	IntervalOneTime OrderInterval = "one-time"
	IntervalMonth   OrderInterval = "month"
	IntervalYear    OrderInterval = "year"
)

// ValidInterval reports whether the value is a known billing cadence.
func ValidInterval(v OrderInterval) bool {
	switch v {
	case IntervalOneTime, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Order describes a purchase tracked from checkout initiation through
// payment confirmation. OrderNo is the idempotency key used for all
// external correlation.
type Order struct {
	ID         int64
	OrderNo    string
	UserUUID   *string
	UserEmail  *string
	Amount     int64 // minor currency units
	Currency   string
	Credits    int64
	Interval   OrderInterval
	Status     OrderStatus
	SessionID  *string
	PaidAt     *time.Time
	PaidEmail  *string
	PaidDetail *string
	CreatedAt  time.Time
}

// BestEmail returns the most reliable known email for the purchaser:
// the email the payment was made with, falling back to the email
// captured at checkout.
func (o *Order) BestEmail() string {
	if o.PaidEmail != nil && *o.PaidEmail != "" {
		return *o.PaidEmail
	}
	if o.UserEmail != nil {
		return *o.UserEmail
	}
	return ""
}

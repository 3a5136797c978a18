package repository

import (
	"context"
	"time"

	"github.com/shipfire/payflow/internal/domain/model"
)

// OrderDraft carries the fields required to insert a new order.
type OrderDraft struct {
	OrderNo   string
	UserUUID  *string
	UserEmail *string
	Amount    int64
	Currency  string
	Credits   int64
	Interval  model.OrderInterval
	SessionID *string
}

// OrderRepository describes persistence operations with orders.
//
// MarkPaid is the only write path for the created->paid transition. It
// must be a single conditional update so that concurrent confirmations
// for the same order cannot both win.
type OrderRepository interface {
	Create(ctx context.Context, draft OrderDraft) (*model.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	// FindCreatedByEmailAndAmount performs heuristic matching: created
	// orders whose user_email or paid_email equals email, amount within
	// one minor unit of amount, created within the trailing window,
	// newest first.
	FindCreatedByEmailAndAmount(ctx context.Context, email string, amount int64, window time.Duration) (*model.Order, error)
	// MarkPaid transitions the order to paid iff it is still in created
	// state. The boolean reports whether this call performed the
	// transition; when the order was already paid the stored order is
	// returned with transitioned=false.
	MarkPaid(ctx context.Context, orderNo string, paidAt time.Time, paidEmail, paidDetail string) (*model.Order, bool, error)
	ListPaidByUser(ctx context.Context, userUUID string) ([]model.Order, error)
	// SelectStaleCreated returns created orders carrying a checkout
	// session that are older than olderThan but still inside the
	// notOlderThan window, oldest first.
	SelectStaleCreated(ctx context.Context, olderThan, notOlderThan time.Duration, limit int) ([]model.Order, error)
}

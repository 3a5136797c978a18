package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/domain/repository"
)

// CheckoutInput carries the fields a caller supplies to open an order.
type CheckoutInput struct {
	UserUUID  string
	UserEmail string
	Amount    int64
	Currency  string
	Credits   int64
	Interval  model.OrderInterval
	SessionID string
}

// CheckoutUseCase opens orders and exposes the purchaser-facing reads.
type CheckoutUseCase struct {
	orders  repository.OrderRepository
	credits repository.CreditRepository
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(orders repository.OrderRepository, credits repository.CreditRepository) *CheckoutUseCase {
	return &CheckoutUseCase{orders: orders, credits: credits}
}

// CreateOrder validates the input and inserts a new order in created
// state under a fresh order number.
func (u *CheckoutUseCase) CreateOrder(ctx context.Context, in CheckoutInput) (*model.Order, error) {
	if in.Amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	if in.Interval == "" {
		in.Interval = model.IntervalOneTime
	}
	if !model.ValidInterval(in.Interval) {
		return nil, domainErrors.ErrInvalidInterval
	}

	in.UserUUID = strings.TrimSpace(in.UserUUID)
	in.UserEmail = strings.ToLower(strings.TrimSpace(in.UserEmail))
	if in.UserUUID == "" && in.UserEmail == "" {
		return nil, domainErrors.ErrMissingIdentity
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	draft := repository.OrderDraft{
		OrderNo:  uuid.NewString(),
		Amount:   in.Amount,
		Currency: currency,
		Credits:  in.Credits,
		Interval: in.Interval,
	}
	if in.UserUUID != "" {
		draft.UserUUID = &in.UserUUID
	}
	if in.UserEmail != "" {
		draft.UserEmail = &in.UserEmail
	}
	if in.SessionID != "" {
		draft.SessionID = &in.SessionID
	}

	return u.orders.Create(ctx, draft)
}

// ListPaidOrders returns the user's paid orders, newest first.
func (u *CheckoutUseCase) ListPaidOrders(ctx context.Context, userUUID string) ([]model.Order, error) {
	return u.orders.ListPaidByUser(ctx, userUUID)
}

// CreditBalance returns the sum of credits granted to the user.
func (u *CheckoutUseCase) CreditBalance(ctx context.Context, userUUID string) (int64, error) {
	return u.credits.Balance(ctx, userUUID)
}

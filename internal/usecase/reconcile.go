package usecase

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/domain/repository"
)

// heuristicWindow bounds how far back email+amount matching may reach.
// Older created orders are considered abandoned and never matched.
const heuristicWindow = 24 * time.Hour

// ReconcileUseCase applies payment confirmations to orders. Every
// delivery channel funnels through Apply, so a webhook, a success
// redirect and a recovery poll racing over the same order resolve to
// exactly one paid transition.
type ReconcileUseCase struct {
	orders repository.OrderRepository
	now    func() time.Time
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(orders repository.OrderRepository) *ReconcileUseCase {
	return &ReconcileUseCase{orders: orders, now: time.Now}
}

// Apply resolves the confirmation to an order and performs the
// created->paid transition. AlreadyProcessed reports that the order
// was paid before this call, by this or any other channel.
func (u *ReconcileUseCase) Apply(ctx context.Context, conf model.PaymentConfirmation) (*model.ReconcileResult, error) {
	order, err := u.resolve(ctx, conf)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case model.OrderStatusPaid:
		return &model.ReconcileResult{AlreadyProcessed: true, Order: order}, nil
	case model.OrderStatusCreated:
		// fall through to the conditional update
	default:
		return nil, domainErrors.ErrInvalidOrderState
	}

	paidEmail := conf.PayerEmail
	if paidEmail == "" {
		paidEmail = order.BestEmail()
	}

	updated, transitioned, err := u.orders.MarkPaid(ctx, order.OrderNo, u.now().UTC(), paidEmail, conf.RawDetail)
	if err != nil {
		return nil, err
	}
	return &model.ReconcileResult{AlreadyProcessed: !transitioned, Order: updated}, nil
}

// resolve finds the order a confirmation refers to. An explicit order
// number wins; otherwise, or when that number is unknown, a created
// order is matched heuristically by payer email and amount.
func (u *ReconcileUseCase) resolve(ctx context.Context, conf model.PaymentConfirmation) (*model.Order, error) {
	if conf.OrderNo != "" {
		order, err := u.orders.GetByOrderNo(ctx, conf.OrderNo)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
	}

	if conf.PayerEmail == "" || conf.Amount <= 0 {
		return nil, domainErrors.ErrNotFound
	}
	return u.orders.FindCreatedByEmailAndAmount(ctx, conf.PayerEmail, conf.Amount, heuristicWindow)
}

package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shipfire/payflow/internal/domain/model"
)

// affiliateRewardPercent is the share of the order amount credited to
// the referral program for each paid order.
const affiliateRewardPercent = 20

// CreditGranter grants purchased credits to a user, once per order.
type CreditGranter interface {
	Grant(ctx context.Context, userUUID string, amount int64, orderNo string) error
}

// ConversionRecorder records an affiliate conversion, once per order.
type ConversionRecorder interface {
	RecordConversion(ctx context.Context, userUUID, orderNo string, orderAmount, reward int64) error
}

// ConfirmationSender delivers the order confirmation email.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
}

// Dispatcher fans out the side effects of a paid order. Each effect
// runs independently under its own deadline; a failure is logged and
// never surfaces to the caller, because the order is already paid and
// the confirmation must still be acknowledged.
type Dispatcher struct {
	credits    CreditGranter
	affiliates ConversionRecorder
	email      ConfirmationSender
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDispatcher constructs Dispatcher.
func NewDispatcher(credits CreditGranter, affiliates ConversionRecorder, email ConfirmationSender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		credits:    credits,
		affiliates: affiliates,
		email:      email,
		timeout:    timeout,
		logger:     logger,
	}
}

// Dispatch runs all applicable side effects for a freshly paid order
// and waits for them to finish. Callers must invoke it exactly once
// per paid transition; the underlying stores additionally dedupe by
// order number, so a duplicate call cannot double-grant.
func (d *Dispatcher) Dispatch(ctx context.Context, order *model.Order) {
	// Side effects outlive the confirmation request that triggered them.
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			actionCtx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()
			if err := fn(actionCtx); err != nil {
				d.logger.Error("side effect failed",
					"effect", name, "order", order.OrderNo, "error", err)
			}
		}()
	}

	if order.UserUUID != nil && order.Credits > 0 {
		userUUID := *order.UserUUID
		run("grant_credits", func(ctx context.Context) error {
			return d.credits.Grant(ctx, userUUID, order.Credits, order.OrderNo)
		})
	}
	if order.UserUUID != nil && order.Amount > 0 {
		userUUID := *order.UserUUID
		reward := order.Amount * affiliateRewardPercent / 100
		run("affiliate_conversion", func(ctx context.Context) error {
			return d.affiliates.RecordConversion(ctx, userUUID, order.OrderNo, order.Amount, reward)
		})
	}
	if order.BestEmail() != "" {
		run("confirmation_email", func(ctx context.Context) error {
			return d.email.SendOrderConfirmation(ctx, order)
		})
	}

	wg.Wait()
}

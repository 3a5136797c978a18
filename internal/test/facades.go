package test

import (
	"context"
	"net/url"
	"sync"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/usecase"
)

// CheckoutFacadeStub provides controllable behaviour for order endpoints.
type CheckoutFacadeStub struct {
	OpenFn    func(context.Context, usecase.CheckoutInput) (*model.Order, error)
	PaidFn    func(context.Context, string) ([]model.Order, error)
	BalanceFn func(context.Context, string) (int64, error)
}

// OpenOrder delegates to provided function or returns default order.
func (s CheckoutFacadeStub) OpenOrder(ctx context.Context, in usecase.CheckoutInput) (*model.Order, error) {
	if s.OpenFn != nil {
		return s.OpenFn(ctx, in)
	}
	return &model.Order{OrderNo: "ord-1", Amount: in.Amount, Status: model.OrderStatusCreated}, nil
}

// PaidOrders returns predefined orders for given user.
func (s CheckoutFacadeStub) PaidOrders(ctx context.Context, userUUID string) ([]model.Order, error) {
	if s.PaidFn != nil {
		return s.PaidFn(ctx, userUUID)
	}
	return []model.Order{{OrderNo: "ord-1", Status: model.OrderStatusPaid}}, nil
}

// CreditBalance returns stored balance or default value.
func (s CheckoutFacadeStub) CreditBalance(ctx context.Context, userUUID string) (int64, error) {
	if s.BalanceFn != nil {
		return s.BalanceFn(ctx, userUUID)
	}
	return 100, nil
}

// PaymentFacadeStub simulates confirmation processing.
type PaymentFacadeStub struct {
	WebhookFn  func(context.Context, model.PaymentProvider, []byte, string) (*model.ReconcileResult, error)
	RedirectFn func(context.Context, model.PaymentProvider, url.Values) (*model.ReconcileResult, error)
}

// ConfirmWebhook delegates to provided function or reports a fresh transition.
func (s PaymentFacadeStub) ConfirmWebhook(ctx context.Context, provider model.PaymentProvider, body []byte, signature string) (*model.ReconcileResult, error) {
	if s.WebhookFn != nil {
		return s.WebhookFn(ctx, provider, body, signature)
	}
	return &model.ReconcileResult{Order: &model.Order{OrderNo: "ord-1", Status: model.OrderStatusPaid}}, nil
}

// ConfirmRedirect delegates to provided function or reports a fresh transition.
func (s PaymentFacadeStub) ConfirmRedirect(ctx context.Context, provider model.PaymentProvider, query url.Values) (*model.ReconcileResult, error) {
	if s.RedirectFn != nil {
		return s.RedirectFn(ctx, provider, query)
	}
	return &model.ReconcileResult{Order: &model.Order{OrderNo: "ord-1", Status: model.OrderStatusPaid}}, nil
}

// PayflowFacadeStub aggregates facade dependencies for HTTP layer tests.
type PayflowFacadeStub struct {
	AuthFacadeStub
	CheckoutFacadeStub
	PaymentFacadeStub

	HealthFn func(context.Context) error
}

// HealthCheck reports configured backing store state.
func (s PayflowFacadeStub) HealthCheck(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// ConfirmationCall records an ApplyConfirmation invocation.
type ConfirmationCall struct {
	Confirmation model.PaymentConfirmation
}

// RecoveryFacadeStub mimics worker interactions with the payment facade.
type RecoveryFacadeStub struct {
	StaleFn   func(context.Context, int) ([]model.Order, error)
	SessionFn func(context.Context, string) (*checkout.Session, error)
	ApplyFn   func(context.Context, model.PaymentConfirmation) (*model.ReconcileResult, error)

	mu      sync.Mutex
	Batches [][]model.Order
	Applied []ConfirmationCall
	calls   int
}

// StaleCreatedOrders returns batches from the configured queue.
func (s *RecoveryFacadeStub) StaleCreatedOrders(ctx context.Context, limit int) ([]model.Order, error) {
	if s.StaleFn != nil {
		return s.StaleFn(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls < len(s.Batches) {
		batch := s.Batches[s.calls]
		s.calls++
		return batch, nil
	}
	return nil, nil
}

// FetchCheckoutSession returns configured session data.
func (s *RecoveryFacadeStub) FetchCheckoutSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	if s.SessionFn != nil {
		return s.SessionFn(ctx, sessionID)
	}
	return &checkout.Session{ID: sessionID, Status: "complete", PaymentStatus: "paid"}, nil
}

// ApplyConfirmation records applied confirmations.
func (s *RecoveryFacadeStub) ApplyConfirmation(ctx context.Context, conf model.PaymentConfirmation) (*model.ReconcileResult, error) {
	if s.ApplyFn != nil {
		return s.ApplyFn(ctx, conf)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Applied = append(s.Applied, ConfirmationCall{Confirmation: conf})
	return &model.ReconcileResult{Order: &model.Order{OrderNo: conf.OrderNo, Status: model.OrderStatusPaid}}, nil
}

// AppliedCalls returns a copy of recorded confirmations.
func (s *RecoveryFacadeStub) AppliedCalls() []ConfirmationCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ConfirmationCall(nil), s.Applied...)
}

// SessionClientStub fetches checkout sessions for tests.
type SessionClientStub struct {
	FetchFn func(context.Context, string) (*checkout.Session, error)
	Session *checkout.Session
	Err     error
}

// FetchSession returns configured response or a default paid session.
func (s SessionClientStub) FetchSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	if s.FetchFn != nil {
		return s.FetchFn(ctx, sessionID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Session != nil {
		return s.Session, nil
	}
	return &checkout.Session{ID: sessionID, Status: "complete", PaymentStatus: "paid"}, nil
}

var _ checkout.Client = SessionClientStub{}

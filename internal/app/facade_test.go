package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/config"
	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/test"
	"github.com/shipfire/payflow/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type recordingSender struct {
	mu   sync.Mutex
	Sent []string
}

func (s *recordingSender) SendOrderConfirmation(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, order.OrderNo)
	return nil
}

type healthStub struct {
	Err error
}

func (h healthStub) HealthCheck(context.Context) error {
	return h.Err
}

type facadeFixture struct {
	Facade     *PayflowFacade
	Orders     *test.InMemoryOrders
	Credits    *test.CreditRepositoryStub
	Affiliates *test.AffiliateRepositoryStub
	Sender     *recordingSender
}

func newFacadeFixture(sessions SessionProvider, health HealthChecker) *facadeFixture {
	logger := testLogger()
	orders := test.NewInMemoryOrders()
	credits := &test.CreditRepositoryStub{}
	affiliates := &test.AffiliateRepositoryStub{}
	sender := &recordingSender{}

	cfg := &config.Config{
		StripeWebhookSecret: "stripe-secret",
		CreemWebhookSecret:  "creem-secret",
		SideEffectTimeout:   time.Second,
	}

	auth := usecase.NewAuthUseCase(test.NewUserRepositoryStub(), test.HasherStub{}, test.StrategyStub{})
	checkoutUC := usecase.NewCheckoutUseCase(orders, credits)
	reconciler := usecase.NewReconcileUseCase(orders)
	dispatcher := usecase.NewDispatcher(credits, affiliates, sender, cfg.SideEffectTimeout, logger)

	facade := NewPayflowFacade(auth, checkoutUC, reconciler, dispatcher, orders, sessions, health, cfg, logger)
	return &facadeFixture{Facade: facade, Orders: orders, Credits: credits, Affiliates: affiliates, Sender: sender}
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func seedCreatedOrder(orders *test.InMemoryOrders, orderNo string) {
	userUUID := "user-uuid"
	email := "user@example.com"
	sessionID := "cs_" + orderNo
	orders.Seed(model.Order{
		OrderNo:   orderNo,
		UserUUID:  &userUUID,
		UserEmail: &email,
		Amount:    1999,
		Currency:  "usd",
		Credits:   100,
		Interval:  model.IntervalOneTime,
		Status:    model.OrderStatusCreated,
		SessionID: &sessionID,
		CreatedAt: time.Now(),
	})
}

func stripeWebhookBody(orderNo string) []byte {
	return fmt.Appendf(nil, `{
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_%s",
			"metadata": {"order_no": %q},
			"customer_details": {"email": "payer@example.com"},
			"amount_total": 1999,
			"currency": "USD",
			"payment_status": "paid"
		}}
	}`, orderNo, orderNo)
}

func TestConfirmWebhookPaysOrderAndDispatchesEffects(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	seedCreatedOrder(fix.Orders, "ord-1")

	body := stripeWebhookBody("ord-1")
	result, err := fix.Facade.ConfirmWebhook(context.Background(), model.ProviderStripe, body, signBody(body, "stripe-secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyProcessed {
		t.Fatal("expected fresh transition")
	}
	if result.Order.Status != model.OrderStatusPaid {
		t.Fatalf("unexpected status %q", result.Order.Status)
	}
	if result.Order.PaidEmail == nil || *result.Order.PaidEmail != "payer@example.com" {
		t.Fatalf("unexpected paid email %v", result.Order.PaidEmail)
	}

	if len(fix.Credits.Grants) != 1 {
		t.Fatalf("expected 1 credit grant, got %d", len(fix.Credits.Grants))
	}
	if g := fix.Credits.Grants[0]; g.UserUUID != "user-uuid" || g.Amount != 100 || g.OrderNo != "ord-1" {
		t.Fatalf("unexpected grant %+v", g)
	}
	if len(fix.Affiliates.Conversions) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(fix.Affiliates.Conversions))
	}
	if c := fix.Affiliates.Conversions[0]; c.Reward != 1999*20/100 {
		t.Fatalf("unexpected reward %d", c.Reward)
	}
	if len(fix.Sender.Sent) != 1 || fix.Sender.Sent[0] != "ord-1" {
		t.Fatalf("unexpected confirmations %v", fix.Sender.Sent)
	}
}

func TestConfirmWebhookReplayDoesNotRepeatEffects(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	seedCreatedOrder(fix.Orders, "ord-1")

	body := stripeWebhookBody("ord-1")
	sig := signBody(body, "stripe-secret")

	if _, err := fix.Facade.ConfirmWebhook(context.Background(), model.ProviderStripe, body, sig); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := fix.Facade.ConfirmWebhook(context.Background(), model.ProviderStripe, body, sig)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !result.AlreadyProcessed {
		t.Fatal("expected replay to be acknowledged as already processed")
	}

	if len(fix.Credits.Grants) != 1 {
		t.Fatalf("expected 1 credit grant after replay, got %d", len(fix.Credits.Grants))
	}
	if len(fix.Sender.Sent) != 1 {
		t.Fatalf("expected 1 confirmation email after replay, got %d", len(fix.Sender.Sent))
	}
}

func TestConfirmWebhookRejectsBadSignature(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	seedCreatedOrder(fix.Orders, "ord-1")

	body := stripeWebhookBody("ord-1")
	_, err := fix.Facade.ConfirmWebhook(context.Background(), model.ProviderStripe, body, signBody(body, "wrong-secret"))
	if !errors.Is(err, domainErrors.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	order, err := fix.Orders.GetByOrderNo(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != model.OrderStatusCreated {
		t.Fatalf("order must stay created, got %q", order.Status)
	}
}

func TestConfirmWebhookUsesPerProviderSecret(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	seedCreatedOrder(fix.Orders, "ord-1")

	body := []byte(`{"eventType":"checkout.completed","object":{"id":"ch_1","request_id":"ord-1","customer":{"email":"payer@example.com"},"order":{"amount":1999,"currency":"usd"}}}`)

	if _, err := fix.Facade.ConfirmWebhook(context.Background(), model.ProviderCreem, body, signBody(body, "stripe-secret")); !errors.Is(err, domainErrors.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for cross-provider secret, got %v", err)
	}

	result, err := fix.Facade.ConfirmWebhook(context.Background(), model.ProviderCreem, body, signBody(body, "creem-secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyProcessed || result.Order.Status != model.OrderStatusPaid {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestConfirmRedirectPaysOrder(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	seedCreatedOrder(fix.Orders, "ord-1")

	query := url.Values{"request_id": {"ord-1"}}
	result, err := fix.Facade.ConfirmRedirect(context.Background(), model.ProviderCreem, query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyProcessed {
		t.Fatal("expected fresh transition")
	}
	// The redirect carries no payer email, so the order's own email is kept.
	if result.Order.PaidEmail == nil || *result.Order.PaidEmail != "user@example.com" {
		t.Fatalf("unexpected paid email %v", result.Order.PaidEmail)
	}
}

func TestConcurrentChannelsDispatchOnce(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	seedCreatedOrder(fix.Orders, "ord-1")

	body := stripeWebhookBody("ord-1")
	sig := signBody(body, "stripe-secret")
	query := url.Values{"order_no": {"ord-1"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = fix.Facade.ConfirmWebhook(context.Background(), model.ProviderStripe, body, sig)
		}()
		go func() {
			defer wg.Done()
			_, _ = fix.Facade.ConfirmRedirect(context.Background(), model.ProviderStripe, query)
		}()
	}
	wg.Wait()

	if len(fix.Credits.Grants) != 1 {
		t.Fatalf("expected 1 credit grant, got %d", len(fix.Credits.Grants))
	}
	if len(fix.Affiliates.Conversions) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(fix.Affiliates.Conversions))
	}
	if len(fix.Sender.Sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(fix.Sender.Sent))
	}
}

func TestApplyConfirmationGuestOrderSkipsAccountEffects(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})
	email := "guest@example.com"
	fix.Orders.Seed(model.Order{
		OrderNo:   "ord-guest",
		UserEmail: &email,
		Amount:    500,
		Currency:  "usd",
		Interval:  model.IntervalOneTime,
		Status:    model.OrderStatusCreated,
		CreatedAt: time.Now(),
	})

	result, err := fix.Facade.ApplyConfirmation(context.Background(), model.PaymentConfirmation{
		Provider: model.ProviderStripe,
		OrderNo:  "ord-guest",
		Source:   model.SourceWebhook,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AlreadyProcessed {
		t.Fatal("expected fresh transition")
	}

	if len(fix.Credits.Grants) != 0 {
		t.Fatalf("guest order must not grant credits, got %d", len(fix.Credits.Grants))
	}
	if len(fix.Affiliates.Conversions) != 0 {
		t.Fatalf("guest order must not record conversions, got %d", len(fix.Affiliates.Conversions))
	}
	if len(fix.Sender.Sent) != 1 {
		t.Fatalf("expected confirmation email to guest, got %d", len(fix.Sender.Sent))
	}
}

func TestStaleCreatedOrdersWindow(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})

	seed := func(orderNo string, age time.Duration) {
		sessionID := "cs_" + orderNo
		fix.Orders.Seed(model.Order{
			OrderNo:   orderNo,
			Amount:    100,
			Status:    model.OrderStatusCreated,
			SessionID: &sessionID,
			CreatedAt: time.Now().Add(-age),
		})
	}
	seed("ord-fresh", time.Minute)
	seed("ord-stale", time.Hour)
	seed("ord-abandoned", 48*time.Hour)

	orders, err := fix.Facade.StaleCreatedOrders(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderNo != "ord-stale" {
		t.Fatalf("expected only the stale order, got %+v", orders)
	}
}

func TestFetchCheckoutSessionWithoutProvider(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})

	_, err := fix.Facade.FetchCheckoutSession(context.Background(), "cs_1")
	if !errors.Is(err, checkout.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFetchCheckoutSessionDelegates(t *testing.T) {
	fix := newFacadeFixture(test.SessionClientStub{Session: &checkout.Session{ID: "cs_1", PaymentStatus: "paid"}}, healthStub{})

	session, err := fix.Facade.FetchCheckoutSession(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "cs_1" || !session.Paid() {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestHealthCheckDelegates(t *testing.T) {
	wantErr := errors.New("db down")
	fix := newFacadeFixture(nil, healthStub{Err: wantErr})

	if err := fix.Facade.HealthCheck(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestFacadeAuthFlow(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})

	token, err := fix.Facade.Register(context.Background(), "user@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	if _, err := fix.Facade.Authenticate(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := fix.Facade.Authenticate(context.Background(), "user@example.com", "wrong"); !errors.Is(err, domainErrors.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	id, err := fix.Facade.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	user, err := fix.Facade.UserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("user by id: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestFacadeCheckoutFlow(t *testing.T) {
	fix := newFacadeFixture(nil, healthStub{})

	order, err := fix.Facade.OpenOrder(context.Background(), usecase.CheckoutInput{
		UserUUID: "user-uuid",
		Amount:   1999,
		Credits:  100,
	})
	if err != nil {
		t.Fatalf("open order: %v", err)
	}

	if _, err := fix.Facade.ApplyConfirmation(context.Background(), model.PaymentConfirmation{
		Provider: model.ProviderStripe,
		OrderNo:  order.OrderNo,
		Source:   model.SourceWebhook,
	}); err != nil {
		t.Fatalf("apply confirmation: %v", err)
	}

	paid, err := fix.Facade.PaidOrders(context.Background(), "user-uuid")
	if err != nil {
		t.Fatalf("paid orders: %v", err)
	}
	if len(paid) != 1 || paid[0].OrderNo != order.OrderNo {
		t.Fatalf("unexpected paid orders %+v", paid)
	}

	balance, err := fix.Facade.CreditBalance(context.Background(), "user-uuid")
	if err != nil {
		t.Fatalf("credit balance: %v", err)
	}
	if balance != 100 {
		t.Fatalf("expected balance 100, got %d", balance)
	}
}

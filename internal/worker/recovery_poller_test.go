package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/domain/model"
	testhelpers "github.com/shipfire/payflow/internal/test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func staleOrder(orderNo, sessionID string) model.Order {
	return model.Order{
		OrderNo:   orderNo,
		SessionID: &sessionID,
		Amount:    1000,
		Status:    model.OrderStatusCreated,
	}
}

func TestNewRecoveryPollerDefaults(t *testing.T) {
	poller := NewRecoveryPoller(&testhelpers.RecoveryFacadeStub{}, 0, 0, 0, testLogger())
	if poller.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", poller.batchSize)
	}
	if poller.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", poller.workers)
	}
	if poller.pollInterval != time.Minute {
		t.Fatalf("expected poll interval default, got %s", poller.pollInterval)
	}
}

func waitForApplied(t *testing.T, facade *testhelpers.RecoveryFacadeStub, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if len(facade.AppliedCalls()) >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for %d confirmations, got %d", want, len(facade.AppliedCalls()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRecoveryPollerConfirmsPaidSessions(t *testing.T) {
	facade := &testhelpers.RecoveryFacadeStub{
		Batches: [][]model.Order{{staleOrder("ord-1", "cs_1")}},
		SessionFn: func(_ context.Context, sessionID string) (*checkout.Session, error) {
			return &checkout.Session{
				ID:            sessionID,
				Status:        "complete",
				PaymentStatus: "paid",
				CustomerEmail: "payer@example.com",
				AmountTotal:   1000,
				Currency:      "usd",
			}, nil
		},
	}
	poller := NewRecoveryPoller(facade, 10*time.Millisecond, 4, 2, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	waitForApplied(t, facade, 1)
	poller.Stop()

	applied := facade.AppliedCalls()
	conf := applied[0].Confirmation
	if conf.OrderNo != "ord-1" || conf.Source != model.SourceRecovery {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if conf.PayerEmail != "payer@example.com" || conf.Amount != 1000 {
		t.Fatalf("unexpected confirmation fields %+v", conf)
	}
}

func TestRecoveryPollerSkipsUnpaidSessions(t *testing.T) {
	facade := &testhelpers.RecoveryFacadeStub{
		Batches: [][]model.Order{{staleOrder("ord-1", "cs_1")}, {staleOrder("ord-2", "cs_2")}},
		SessionFn: func(_ context.Context, sessionID string) (*checkout.Session, error) {
			if sessionID == "cs_1" {
				return &checkout.Session{ID: sessionID, Status: "open", PaymentStatus: "unpaid"}, nil
			}
			return &checkout.Session{ID: sessionID, Status: "complete", PaymentStatus: "paid"}, nil
		},
	}
	poller := NewRecoveryPoller(facade, 10*time.Millisecond, 1, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	waitForApplied(t, facade, 1)
	poller.Stop()

	for _, call := range facade.AppliedCalls() {
		if call.Confirmation.OrderNo == "ord-1" {
			t.Fatal("unpaid session must not be confirmed")
		}
	}
}

func TestRecoveryPollerSkipsOrdersWithoutSession(t *testing.T) {
	var fetches int32
	facade := &testhelpers.RecoveryFacadeStub{
		Batches: [][]model.Order{{{OrderNo: "ord-1", Status: model.OrderStatusCreated}}},
		SessionFn: func(context.Context, string) (*checkout.Session, error) {
			atomic.AddInt32(&fetches, 1)
			return nil, checkout.ErrSessionNotFound
		},
	}
	poller := NewRecoveryPoller(facade, 10*time.Millisecond, 1, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	poller.Stop()

	if atomic.LoadInt32(&fetches) != 0 {
		t.Fatalf("expected no session fetch without session id, got %d", fetches)
	}
	if len(facade.AppliedCalls()) != 0 {
		t.Fatal("expected no confirmations")
	}
}

func TestRecoveryPollerHandlesRateLimiting(t *testing.T) {
	attempts := int32(0)
	facade := &testhelpers.RecoveryFacadeStub{
		Batches: [][]model.Order{{staleOrder("ord-1", "cs_1")}, {staleOrder("ord-1", "cs_1")}},
		SessionFn: func(_ context.Context, sessionID string) (*checkout.Session, error) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return nil, checkout.TooManyRequestsError{RetryAfter: 10 * time.Millisecond}
			}
			return &checkout.Session{ID: sessionID, Status: "complete", PaymentStatus: "paid"}, nil
		},
	}
	poller := NewRecoveryPoller(facade, 5*time.Millisecond, 1, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	waitForApplied(t, facade, 1)
	poller.Stop()
}

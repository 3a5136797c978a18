package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/domain/model"
)

// PaymentFacade exposes the subset of application functionality required by the poller.
type PaymentFacade interface {
	StaleCreatedOrders(ctx context.Context, limit int) ([]model.Order, error)
	FetchCheckoutSession(ctx context.Context, sessionID string) (*checkout.Session, error)
	ApplyConfirmation(ctx context.Context, conf model.PaymentConfirmation) (*model.ReconcileResult, error)
}

// RecoveryPoller periodically re-checks stale created orders against the
// provider API. It picks up payments whose webhook and redirect both
// went missing, feeding them through the same confirmation path.
type RecoveryPoller struct {
	facade       PaymentFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewRecoveryPoller constructs recovery worker pool.
func NewRecoveryPoller(facade PaymentFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *RecoveryPoller {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &RecoveryPoller{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (p *RecoveryPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *RecoveryPoller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *RecoveryPoller) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *RecoveryPoller) fetchAndDispatch(ctx context.Context) {
	orders, err := p.facade.StaleCreatedOrders(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch stale orders failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *RecoveryPoller) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleOrder(ctx, order)
		}
	}
}

func (p *RecoveryPoller) handleOrder(ctx context.Context, order model.Order) {
	if order.SessionID == nil || *order.SessionID == "" {
		return
	}

	session, err := p.facade.FetchCheckoutSession(ctx, *order.SessionID)
	if err != nil {
		var rateErr checkout.TooManyRequestsError
		switch {
		case errors.As(err, &rateErr):
			p.logger.Warn("provider rate limited", slog.Duration("retry_after", rateErr.RetryAfter))
			time.Sleep(rateErr.RetryAfter)
		case errors.Is(err, checkout.ErrSessionNotFound):
			p.logger.Warn("checkout session vanished",
				slog.String("order", order.OrderNo), slog.String("session", *order.SessionID))
		default:
			p.logger.Error("session fetch failed",
				slog.String("order", order.OrderNo), slog.String("error", err.Error()))
		}
		return
	}

	if !session.Paid() {
		return
	}

	detail, _ := json.Marshal(map[string]string{
		"session_id":     session.ID,
		"payment_status": session.PaymentStatus,
		"recovered":      "true",
	})
	conf := model.PaymentConfirmation{
		Provider:   model.ProviderStripe,
		OrderNo:    order.OrderNo,
		PayerEmail: session.CustomerEmail,
		Amount:     session.AmountTotal,
		Currency:   session.Currency,
		RawDetail:  string(detail),
		Source:     model.SourceRecovery,
	}

	result, err := p.facade.ApplyConfirmation(ctx, conf)
	if err != nil {
		p.logger.Error("recovered confirmation failed",
			slog.String("order", order.OrderNo), slog.String("error", err.Error()))
		return
	}
	if !result.AlreadyProcessed {
		p.logger.Info("recovered missed payment",
			slog.String("order", order.OrderNo), slog.String("session", session.ID))
	}
}

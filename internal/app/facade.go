package app

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/domain/repository"
	"github.com/shipfire/payflow/internal/payment"
	"github.com/shipfire/payflow/internal/usecase"
)

// Stale orders younger than recoveryMinAge are left to the webhook;
// older than recoveryMaxAge they are considered abandoned.
const (
	recoveryMinAge = 5 * time.Minute
	recoveryMaxAge = 24 * time.Hour
)

// SessionProvider fetches checkout session state from the provider API.
type SessionProvider interface {
	FetchSession(ctx context.Context, sessionID string) (*checkout.Session, error)
}

// HealthChecker reports backing store connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PayflowFacade is the single entry point the HTTP layer and the
// recovery worker use. Every confirmation channel converges on
// ApplyConfirmation, which owns the paid transition and its side
// effects.
type PayflowFacade struct {
	auth       *usecase.AuthUseCase
	checkout   *usecase.CheckoutUseCase
	reconciler *usecase.ReconcileUseCase
	dispatcher *usecase.Dispatcher
	orders     repository.OrderRepository
	sessions   SessionProvider
	health     HealthChecker
	config     *config.Config
	logger     *slog.Logger
}

// NewPayflowFacade constructs PayflowFacade.
func NewPayflowFacade(
	auth *usecase.AuthUseCase,
	checkoutUC *usecase.CheckoutUseCase,
	reconciler *usecase.ReconcileUseCase,
	dispatcher *usecase.Dispatcher,
	orders repository.OrderRepository,
	sessions SessionProvider,
	health HealthChecker,
	cfg *config.Config,
	logger *slog.Logger,
) *PayflowFacade {
	return &PayflowFacade{
		auth:       auth,
		checkout:   checkoutUC,
		reconciler: reconciler,
		dispatcher: dispatcher,
		orders:     orders,
		sessions:   sessions,
		health:     health,
		config:     cfg,
		logger:     logger,
	}
}

// Register creates a user account and returns the auth token.
func (f *PayflowFacade) Register(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, email, password)
	return token, err
}

// Authenticate validates credentials and returns the auth token.
func (f *PayflowFacade) Authenticate(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, email, password)
	return token, err
}

// ParseToken extracts user ID from provided token.
func (f *PayflowFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

// UserByID fetches user by identifier.
func (f *PayflowFacade) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return f.auth.GetByID(ctx, id)
}

// OpenOrder creates an order in created state.
func (f *PayflowFacade) OpenOrder(ctx context.Context, in usecase.CheckoutInput) (*model.Order, error) {
	return f.checkout.CreateOrder(ctx, in)
}

// PaidOrders returns the user's paid orders.
func (f *PayflowFacade) PaidOrders(ctx context.Context, userUUID string) ([]model.Order, error) {
	return f.checkout.ListPaidOrders(ctx, userUUID)
}

// CreditBalance returns the user's credit balance.
func (f *PayflowFacade) CreditBalance(ctx context.Context, userUUID string) (int64, error) {
	return f.checkout.CreditBalance(ctx, userUUID)
}

// ConfirmWebhook verifies, normalizes, and applies a provider webhook.
func (f *PayflowFacade) ConfirmWebhook(ctx context.Context, provider model.PaymentProvider, body []byte, signature string) (*model.ReconcileResult, error) {
	conf, err := payment.ParseWebhook(provider, body, signature, f.webhookSecret(provider))
	if err != nil {
		return nil, err
	}
	return f.ApplyConfirmation(ctx, *conf)
}

// ConfirmRedirect normalizes and applies a success-page redirect.
func (f *PayflowFacade) ConfirmRedirect(ctx context.Context, provider model.PaymentProvider, query url.Values) (*model.ReconcileResult, error) {
	conf, err := payment.ParseRedirect(provider, query)
	if err != nil {
		return nil, err
	}
	return f.ApplyConfirmation(ctx, *conf)
}

// ApplyConfirmation reconciles the confirmation with its order and,
// on a fresh paid transition, dispatches the side effects. A replayed
// confirmation is acknowledged without re-running side effects.
func (f *PayflowFacade) ApplyConfirmation(ctx context.Context, conf model.PaymentConfirmation) (*model.ReconcileResult, error) {
	result, err := f.reconciler.Apply(ctx, conf)
	if err != nil {
		return nil, err
	}
	if !result.AlreadyProcessed {
		f.logger.Info("order paid",
			slog.String("order", result.Order.OrderNo),
			slog.String("provider", string(conf.Provider)),
			slog.String("source", string(conf.Source)))
		f.dispatcher.Dispatch(ctx, result.Order)
	}
	return result, nil
}

// StaleCreatedOrders returns created orders eligible for recovery polling.
func (f *PayflowFacade) StaleCreatedOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return f.orders.SelectStaleCreated(ctx, recoveryMinAge, recoveryMaxAge, limit)
}

// FetchCheckoutSession queries the provider for session state.
func (f *PayflowFacade) FetchCheckoutSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	if f.sessions == nil {
		return nil, checkout.ErrSessionNotFound
	}
	return f.sessions.FetchSession(ctx, sessionID)
}

// HealthCheck reports backing store connectivity.
func (f *PayflowFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

func (f *PayflowFacade) webhookSecret(provider model.PaymentProvider) string {
	switch provider {
	case model.ProviderStripe:
		return f.config.StripeWebhookSecret
	case model.ProviderCreem:
		return f.config.CreemWebhookSecret
	default:
		return ""
	}
}

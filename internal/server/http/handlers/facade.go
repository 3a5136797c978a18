package handlers

import (
	"context"
	"net/url"

	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (int64, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)
}

// CheckoutFacade encapsulates order operations exposed via HTTP.
type CheckoutFacade interface {
	OpenOrder(ctx context.Context, in usecase.CheckoutInput) (*model.Order, error)
	PaidOrders(ctx context.Context, userUUID string) ([]model.Order, error)
	CreditBalance(ctx context.Context, userUUID string) (int64, error)
}

// PaymentFacade applies payment confirmations delivered over HTTP.
type PaymentFacade interface {
	ConfirmWebhook(ctx context.Context, provider model.PaymentProvider, body []byte, signature string) (*model.ReconcileResult, error)
	ConfirmRedirect(ctx context.Context, provider model.PaymentProvider, query url.Values) (*model.ReconcileResult, error)
}

// HealthFacade reports backing store connectivity.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// PayflowFacade aggregates the full set of operations used across handlers.
type PayflowFacade interface {
	AuthFacade
	CheckoutFacade
	PaymentFacade
	HealthFacade
}

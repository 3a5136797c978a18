package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/app"
	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/domain/repository"
	"github.com/shipfire/payflow/internal/storage/postgres"
	"github.com/shipfire/payflow/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:           ":0",
		DatabaseURI:          "postgres://stub",
		StripeWebhookSecret:  "stripe-secret",
		CreemWebhookSecret:   "creem-secret",
		CheckoutAPIAddress:   "http://localhost",
		AuthSecret:           "secret",
		RecoveryPollInterval: time.Millisecond,
		RecoveryBatchSize:    1,
		WorkerPoolSize:       1,
		SideEffectTimeout:    time.Millisecond,
		ShutdownTimeout:      time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	userRepo := test.NewUserRepositoryStub()
	orderRepo := test.NewInMemoryOrders()
	creditRepo := &test.CreditRepositoryStub{}
	affiliateRepo := &test.AffiliateRepositoryStub{}
	sessionStub := test.SessionClientStub{}

	var facade *app.PayflowFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.UserRepository(userRepo)),
			fx.Replace(repository.OrderRepository(orderRepo)),
			fx.Replace(repository.CreditRepository(creditRepo)),
			fx.Replace(repository.AffiliateRepository(affiliateRepo)),
			fx.Replace(checkout.Client(sessionStub)),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected payment facade instance")
	}
}

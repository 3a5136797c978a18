package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewCheckoutUseCase,
		NewReconcileUseCase,
	),
	fx.Provide(
		func(r repository.CreditRepository) CreditGranter { return r },
		func(r repository.AffiliateRepository) ConversionRecorder { return r },
	),
	fx.Provide(newDispatcher),
)

type dispatcherParams struct {
	fx.In

	Credits    CreditGranter
	Affiliates ConversionRecorder
	Email      ConfirmationSender
	Config     *config.Config
	Logger     *slog.Logger
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	return NewDispatcher(p.Credits, p.Affiliates, p.Email, p.Config.SideEffectTimeout, p.Logger)
}

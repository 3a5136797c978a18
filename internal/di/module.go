package di

import (
	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/adapter/checkout"
	"github.com/shipfire/payflow/internal/adapter/email"
	"github.com/shipfire/payflow/internal/app"
	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/logger"
	"github.com/shipfire/payflow/internal/pkg/auth"
	"github.com/shipfire/payflow/internal/server/http/handlers"
	"github.com/shipfire/payflow/internal/server/http/router"
	"github.com/shipfire/payflow/internal/storage/postgres"
	"github.com/shipfire/payflow/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		checkout.Module,
		email.Module,
		usecase.Module,
		fx.Provide(
			func(client checkout.Client) app.SessionProvider { return client },
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.PayflowFacade) handlers.PayflowFacade { return f },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

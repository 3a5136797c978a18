package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewPayflowFacade,
		newHTTPServer,
		newRecoveryPoller,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type pollerParams struct {
	fx.In

	Facade   *PayflowFacade
	Sessions SessionProvider
	Config   *config.Config
	Logger   *slog.Logger
}

// newRecoveryPoller returns nil when no provider API is configured;
// the lifecycle then runs without recovery polling.
func newRecoveryPoller(p pollerParams) *worker.RecoveryPoller {
	if p.Sessions == nil {
		return nil
	}
	return worker.NewRecoveryPoller(
		p.Facade,
		p.Config.RecoveryPollInterval,
		p.Config.RecoveryBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.RecoveryPoller
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting payflow", slog.String("addr", p.Server.Addr))
			if p.Worker != nil {
				p.Worker.Start(ctx)
			}
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if p.Worker != nil {
				p.Worker.Stop()
			}

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("payflow stopped")
			return nil
		},
	})
}

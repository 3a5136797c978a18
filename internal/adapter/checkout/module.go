package checkout

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/config"
)

// Module exposes checkout session client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// newClient returns a nil Client when no provider API is configured;
// the recovery worker treats that as disabled.
func newClient(p clientParams) (Client, error) {
	if p.Config.CheckoutAPIAddress == "" {
		return nil, nil
	}
	return NewHTTPClient(p.Config.CheckoutAPIAddress, p.Config.CheckoutAPIKey, p.Logger)
}

package email

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/config"
	"github.com/shipfire/payflow/internal/usecase"
)

// Module exposes the confirmation email sender to fx graph.
var Module = fx.Provide(newSender)

type senderParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newSender(p senderParams) (usecase.ConfirmationSender, error) {
	if p.Config.EmailAPIAddress == "" {
		return NewNoopSender(p.Logger), nil
	}
	return NewHTTPSender(p.Config.EmailAPIAddress, p.Config.EmailAPIKey, p.Config.EmailFrom, p.Logger)
}

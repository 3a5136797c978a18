package auth

import (
	"go.uber.org/fx"

	"github.com/shipfire/payflow/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenStrategy),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) TokenStrategy {
	return NewHMACTokens(p.Config.AuthSecret, 0)
}

package entitlement

import (
	"github.com/futautah-hue/balo-website/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(service.NewService),
)

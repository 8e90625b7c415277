package escrow

import (
	"github.com/futautah-hue/balo-website/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewFromConfig selects the webhook provider when an endpoint is configured.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.EscrowEndpoint == "" {
		return NewNoOpProvider(log)
	}
	return NewWebhookProvider(cfg.EscrowEndpoint, log)
}

var Module = fx.Module("providers.escrow",
	fx.Provide(NewFromConfig),
)

package booking

import (
	"github.com/futautah-hue/balo-website/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(service.NewService),
)

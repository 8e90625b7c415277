package notification

import (
	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	"github.com/futautah-hue/balo-website/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(
		service.NewService,
		service.NewDirectory,
		service.NewDispatcher,
		func(d *service.Dispatcher) notificationdomain.Publisher { return d },
	),
)

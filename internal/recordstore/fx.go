package recordstore

import (
	"github.com/futautah-hue/balo-website/internal/recordstore/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("recordstore",
	fx.Provide(repository.Provide),
	fx.Invoke(repository.Migrate),
)

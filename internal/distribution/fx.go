package distribution

import (
	"github.com/kirapay/kirapay/internal/distribution/repository"
	"github.com/kirapay/kirapay/internal/distribution/service"
	"go.uber.org/fx"
)

var Module = fx.Module("distribution.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

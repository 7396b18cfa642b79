package distributionconfig

import (
	"github.com/kirapay/kirapay/internal/distributionconfig/repository"
	"github.com/kirapay/kirapay/internal/distributionconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("distributionconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

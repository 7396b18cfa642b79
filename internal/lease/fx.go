package lease

import (
	"github.com/kirapay/kirapay/internal/lease/repository"
	"github.com/kirapay/kirapay/internal/lease/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lease.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package audit

import (
	"github.com/kirapay/kirapay/internal/audit/repository"
	"github.com/kirapay/kirapay/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

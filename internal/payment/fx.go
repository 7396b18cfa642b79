package payment

import (
	"github.com/kirapay/kirapay/internal/payment/gateway"
	"github.com/kirapay/kirapay/internal/payment/repository"
	"github.com/kirapay/kirapay/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideGateway(log *zap.Logger) gateway.Gateway {
	return gateway.NewSimulated(log)
}

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideGateway),
	fx.Provide(service.New),
)

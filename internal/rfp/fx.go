package rfp

import (
	"github.com/rfpdock/rfpdock/internal/rfp/repository"
	"github.com/rfpdock/rfpdock/internal/rfp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rfp.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

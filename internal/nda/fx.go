package nda

import (
	"github.com/rfpdock/rfpdock/internal/nda/repository"
	"github.com/rfpdock/rfpdock/internal/nda/service"
	"go.uber.org/fx"
)

var Module = fx.Module("nda.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

package company

import (
	"github.com/rfpdock/rfpdock/internal/company/repository"
	"github.com/rfpdock/rfpdock/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

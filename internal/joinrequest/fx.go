package joinrequest

import (
	"github.com/rfpdock/rfpdock/internal/joinrequest/repository"
	"github.com/rfpdock/rfpdock/internal/joinrequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("joinrequest.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

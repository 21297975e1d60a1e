package notification

import (
	"github.com/rfpdock/rfpdock/internal/notification/repository"
	"github.com/rfpdock/rfpdock/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(service.NewEmitter),
)

package invitation

import (
	"github.com/rfpdock/rfpdock/internal/invitation/repository"
	"github.com/rfpdock/rfpdock/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

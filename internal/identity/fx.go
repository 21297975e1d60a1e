package identity

import (
	"github.com/rfpdock/rfpdock/internal/identity/repository"
	"github.com/rfpdock/rfpdock/internal/identity/service"
	"github.com/rfpdock/rfpdock/internal/identity/session"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)

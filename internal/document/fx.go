package document

import (
	"github.com/rfpdock/rfpdock/internal/document/repository"
	"github.com/rfpdock/rfpdock/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

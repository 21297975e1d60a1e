package entitlement

import (
	"github.com/rfpdock/rfpdock/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.resolver",
	fx.Provide(service.NewDecisionMetrics),
	fx.Provide(service.NewResolver),
)

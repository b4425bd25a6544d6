package settlement

import (
	"github.com/dentalclinic/payouts/internal/settlement/repository"
	"github.com/dentalclinic/payouts/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

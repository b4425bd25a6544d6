package audit

import (
	"github.com/dentalclinic/payouts/internal/audit/repository"
	"github.com/dentalclinic/payouts/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

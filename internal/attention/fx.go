package attention

import (
	"github.com/dentalclinic/payouts/internal/attention/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("attention",
	fx.Provide(repository.Provide),
)

package professional

import (
	"github.com/dentalclinic/payouts/internal/professional/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("professional",
	fx.Provide(repository.Provide),
)

package product

import (
	"github.com/smallbiznis/storekeep/internal/product/repository"
	"github.com/smallbiznis/storekeep/internal/product/service"
	"go.uber.org/fx"
)

// Module provides the product repository and service. The Repricer the
// service depends on comes from the pricing module.
var Module = fx.Module("product",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)

package pricing

import (
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/internal/pricing/export"
	"github.com/smallbiznis/storekeep/internal/pricing/service"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(service.NewService),
	fx.Provide(provideService),
	fx.Provide(provideRecalculator),
	fx.Provide(provideRepricer),
	fx.Provide(export.NewService),
)

func provideService(s *service.Service) domain.Service {
	return s
}

func provideRecalculator(s *service.Service) categorydomain.Recalculator {
	return s
}

func provideRepricer(s *service.Service) productdomain.Repricer {
	return s
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/internal/observability/metrics"
	"github.com/smallbiznis/storekeep/internal/observability/tracing"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/internal/pricing/engine"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/smallbiznis/storekeep/internal/ratelimit"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	ProductRepo  productdomain.Repository
	CategoryRepo categorydomain.Repository
	Settings     settingdomain.Service
	Guard        *ratelimit.RecalculationGuard `optional:"true"`
	Recalc       *metrics.RecalculationMetrics `optional:"true"`
	Metrics      *metrics.Metrics              `optional:"true"`
}

// Service re-prices stored products. Batches run sequentially and commit
// each product on its own; settings and category rates are read fresh for
// every product.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	tracer       trace.Tracer
	productRepo  productdomain.Repository
	categoryRepo categorydomain.Repository
	settings     settingdomain.Service
	guard        *ratelimit.RecalculationGuard
	recalc       *metrics.RecalculationMetrics
	metrics      *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("pricing.service"),
		clock:        p.Clock,
		tracer:       otel.Tracer("storekeep/pricing"),
		productRepo:  p.ProductRepo,
		categoryRepo: p.CategoryRepo,
		settings:     p.Settings,
		guard:        p.Guard,
		recalc:       p.Recalc,
		metrics:      p.Metrics,
	}
}

// RecalculateOne re-prices a single product. It reports false without error
// when the product is missing, has no positive EXW price or no category.
func (s *Service) RecalculateOne(ctx context.Context, productID snowflake.ID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.recalculate_one",
		trace.WithAttributes(attribute.String("product.id", productID.String())),
	)
	defer span.End()

	ok, err := s.recalculate(ctx, productID, metrics.ScopeProduct)
	if err != nil {
		s.recalc.IncError(metrics.ScopeProduct, err)
		recordSpanError(span, err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("pricing.recalculated", ok))
	return ok, nil
}

func (s *Service) RecalculateCategory(ctx context.Context, categoryID snowflake.ID) (int, error) {
	return s.batch(ctx, metrics.ScopeCategory, &categoryID)
}

// RecalculateAll re-prices the whole catalog. Only one run may be active
// across instances; a concurrent call gets ErrRecalculationInProgress.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	release, err := s.guard.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ratelimit.ErrRecalculationHeld) {
			s.metrics.RecordGuardDenied(ctx, metrics.ScopeAll)
			return 0, pricingdomain.ErrRecalculationInProgress
		}
		return 0, err
	}
	defer release(context.WithoutCancel(ctx))

	return s.batch(ctx, metrics.ScopeAll, nil)
}

// batch runs to completion or to the first storage error. It is detached
// from the caller's cancellation, so a dropped client does not cut it short.
func (s *Service) batch(ctx context.Context, scope string, categoryID *snowflake.ID) (int, error) {
	ctx = context.WithoutCancel(ctx)
	attrs := []attribute.KeyValue{attribute.String("pricing.scope", scope)}
	if categoryID != nil {
		attrs = append(attrs, attribute.String("category.id", categoryID.String()))
	}
	ctx, span := s.tracer.Start(ctx, "pricing.recalculate_"+scope, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	defer func() { s.recalc.ObserveDuration(scope, time.Since(start)) }()

	ids, err := s.productRepo.ListPriceableIDs(ctx, s.db, categoryID)
	if err != nil {
		return 0, s.fail(span, scope, 0, err)
	}

	count := 0
	for _, id := range ids {
		ok, err := s.recalculate(ctx, id, scope)
		if err != nil {
			return count, s.fail(span, scope, count, err)
		}
		if ok {
			count++
		}
	}

	span.SetAttributes(attribute.Int("pricing.recalculated", count))
	s.log.Info("recalculation finished",
		zap.String("scope", scope),
		zap.Int("candidates", len(ids)),
		zap.Int("recalculated", count),
		zap.Duration("duration", time.Since(start)),
	)
	return count, nil
}

func (s *Service) fail(span trace.Span, scope string, count int, err error) error {
	s.recalc.IncError(scope, err)
	recordSpanError(span, err)
	s.log.Error("recalculation stopped",
		zap.String("scope", scope),
		zap.Int("recalculated", count),
		zap.Error(err),
	)
	return &BatchError{Scope: scope, Recalculated: count, Err: err}
}

func (s *Service) recalculate(ctx context.Context, productID snowflake.ID, scope string) (bool, error) {
	product, err := s.productRepo.FindByID(ctx, s.db, productID)
	if err != nil {
		return false, err
	}
	if product == nil || !product.CostBasis().Priceable() || product.CategoryID == nil {
		s.recalc.IncProduct(scope, metrics.OutcomeSkipped)
		return false, nil
	}

	category, err := s.categoryRepo.FindByID(ctx, *product.CategoryID)
	if err != nil {
		return false, err
	}
	if category == nil {
		s.recalc.IncProduct(scope, metrics.OutcomeSkipped)
		return false, nil
	}

	coeff, err := s.settings.GetSettingsMap(ctx)
	if err != nil {
		return false, err
	}

	result := engine.CalculatePrices(pricingdomain.NewPriceInputs(product.CostBasis(), category.Rates(), coeff))
	if !result.Finite() {
		s.log.Warn("price overflow, snapshot kept",
			zap.String("product_id", product.ID.String()),
			zap.Float64("exw_price_yuan", product.ExwPriceYuan),
		)
		s.recalc.IncProduct(scope, metrics.OutcomeSkipped)
		return false, nil
	}
	if err := s.productRepo.SaveSnapshot(ctx, s.db, product.ID, result, s.clock.Now().UTC()); err != nil {
		return false, err
	}

	s.recalc.IncProduct(scope, metrics.OutcomeRecalculated)
	if result.MarginWarning {
		s.log.Debug("margin below target",
			zap.String("product_id", product.ID.String()),
			zap.Float64("store_margin_percent", result.StoreMarginPercent),
			zap.Float64("target_store_margin", coeff.TargetStoreMargin),
		)
	}
	return true, nil
}

// Preview prices a hypothetical product with the current settings.
func (s *Service) Preview(ctx context.Context, req pricingdomain.PreviewRequest) (*pricingdomain.PreviewResponse, error) {
	if err := validatePreview(req); err != nil {
		return nil, err
	}

	rates := pricingdomain.CategoryRates{
		CustomsDutyPercent: req.CategoryDutyPercent,
		IgstPercent:        req.CategoryIgstPercent,
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		categoryID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, pricingdomain.ErrInvalidID
		}
		category, err := s.categoryRepo.FindByID(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, pricingdomain.ErrCategoryNotFound
		}
		rates = category.Rates()
	}

	coeff, err := s.settings.GetSettingsMap(ctx)
	if err != nil {
		return nil, err
	}

	inputs := pricingdomain.NewPriceInputs(pricingdomain.CostBasis{
		ExwPriceYuan:   req.ExwPriceYuan,
		UnitsPerCarton: req.UnitsPerCarton,
		CartonLengthCm: req.CartonLengthCm,
		CartonWidthCm:  req.CartonWidthCm,
		CartonHeightCm: req.CartonHeightCm,
	}, rates, coeff)

	result := engine.CalculatePrices(inputs)
	if !result.Finite() {
		return nil, pricingdomain.ErrPriceOutOfRange
	}
	return &pricingdomain.PreviewResponse{Inputs: inputs, Result: result}, nil
}

func validatePreview(req pricingdomain.PreviewRequest) error {
	if req.ExwPriceYuan < 0 {
		return pricingdomain.ErrInvalidExwPriceYuan
	}
	if req.UnitsPerCarton < 0 {
		return pricingdomain.ErrInvalidUnitsPerCarton
	}
	if req.CartonLengthCm < 0 || req.CartonWidthCm < 0 || req.CartonHeightCm < 0 {
		return pricingdomain.ErrInvalidCartonDimensions
	}
	if req.CategoryDutyPercent < 0 || req.CategoryIgstPercent < 0 {
		return pricingdomain.ErrInvalidCategoryRate
	}
	return nil
}

func recordSpanError(span trace.Span, err error) {
	safe := tracing.SafeError(err)
	span.RecordError(safe)
	span.SetStatus(codes.Error, safe.Error())
}

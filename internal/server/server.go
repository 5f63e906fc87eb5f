package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storekeep/internal/category"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/config"
	"github.com/smallbiznis/storekeep/internal/observability"
	obsmiddleware "github.com/smallbiznis/storekeep/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storekeep/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storekeep/internal/observability/tracing"
	"github.com/smallbiznis/storekeep/internal/pricing"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/internal/pricing/export"
	"github.com/smallbiznis/storekeep/internal/product"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/smallbiznis/storekeep/internal/providers"
	"github.com/smallbiznis/storekeep/internal/ratelimit"
	"github.com/smallbiznis/storekeep/internal/setting"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	setting.Module,
	category.Module,
	product.Module,
	pricing.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obsCfg.TraceSkipPaths...))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedExtensions([]string{".pdf", ".xlsx"}),
	))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	categorySvc   categorydomain.Service
	settingSvc    settingdomain.Service
	productSvc    productdomain.Service
	pricingSvc    pricingdomain.Service
	exportSvc     *export.Service
	exportLimiter *ratelimit.ExportLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	CategorySvc   categorydomain.Service
	SettingSvc    settingdomain.Service
	ProductSvc    productdomain.Service
	PricingSvc    pricingdomain.Service
	ExportSvc     *export.Service
	ExportLimiter *ratelimit.ExportLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		categorySvc:   p.CategorySvc,
		settingSvc:    p.SettingSvc,
		productSvc:    p.ProductSvc,
		pricingSvc:    p.PricingSvc,
		exportSvc:     p.ExportSvc,
		exportLimiter: p.ExportLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Categories --------
	api.GET("/categories", s.ListCategories)
	api.POST("/categories", s.CreateCategory)
	api.GET("/categories/:id", s.GetCategoryByID)
	api.PATCH("/categories/:id", s.UpdateCategory)

	// -------- Settings --------
	api.GET("/settings", s.ListSettings)
	api.PUT("/settings", s.UpsertSetting)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)
	api.POST("/products/:id/recalculate", s.RecalculateProduct)

	// -------- Pricing --------
	api.POST("/pricing/calculate", s.CalculatePrice)
	api.POST("/pricing/recalculate-all", s.RecalculateAll)

	exports := api.Group("/pricing/export", s.ExportRateLimit())
	{
		exports.GET("/price-list.xlsx", s.ExportPriceList)
		exports.GET("/labels.pdf", s.ExportShelfLabels)
		exports.GET("/price-sheet.pdf", s.ExportPriceSheet)
	}
}

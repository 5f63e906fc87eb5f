package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/smallbiznis/storekeep/pkg/db"
	"github.com/smallbiznis/storekeep/pkg/db/option"
	"github.com/smallbiznis/storekeep/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	CategoryRepo categorydomain.Repository
	Repricer     domain.Repricer
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	categoryRepo categorydomain.Repository
	repricer     domain.Repricer
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("product.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		categoryRepo: p.CategoryRepo,
		repricer:     p.Repricer,
	}
}

var sortColumns = map[string]bool{
	"created_at":           true,
	"updated_at":           true,
	"name":                 true,
	"exw_price_yuan":       true,
	"total_landed_cost":    true,
	"suggested_mrp":        true,
	"store_margin_percent": true,
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, err
	}
	if _, err := pagination.DecodeCursor(req.PageToken); err != nil {
		return nil, domain.ErrInvalidPageToken
	}

	items, err := s.repo.List(ctx, s.db, filter,
		option.WithSortBy(option.WithQuerySortBy(req.SortBy, req.OrderBy, sortColumns)),
		option.ApplyPagination(req.Pagination),
	)
	if err != nil {
		return nil, err
	}

	page, info := pagination.Trim(items, req.Pagination)
	resp := &domain.ListResponse{
		Items:    make([]domain.Response, 0, len(page)),
		PageInfo: info,
	}
	for i := range page {
		resp.Items = append(resp.Items, toResponse(&page[i]))
	}
	return resp, nil
}

func (s *Service) ListAll(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, filter,
		option.WithSortBy(option.WithQuerySortBy(req.SortBy, req.OrderBy, sortColumns)),
	)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) listFilter(req domain.ListRequest) (domain.ListFilter, error) {
	filter := domain.ListFilter{
		Name:          strings.TrimSpace(req.Name),
		MarginWarning: req.MarginWarning,
		Priced:        req.Priced,
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListFilter{}, domain.ErrInvalidCategory
		}
		filter.CategoryID = &id
	}
	return filter, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	p := &domain.Product{
		ID:             s.genID.Generate(),
		Name:           strings.TrimSpace(req.Name),
		SKU:            normalizeSKU(req.SKU),
		CategoryID:     categoryID,
		ExwPriceYuan:   req.ExwPriceYuan,
		UnitsPerCarton: req.UnitsPerCarton,
		CartonLengthCm: req.CartonLengthCm,
		CartonWidthCm:  req.CartonWidthCm,
		CartonHeightCm: req.CartonHeightCm,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSKU
		}
		return nil, err
	}

	// The row is committed before pricing. A failed reprice is logged and
	// leaves it unpriced rather than failing the create, so a client retry
	// cannot duplicate it.
	if p.CostBasis().Priceable() {
		_ = s.reprice(ctx, p.ID)
	}

	return s.Get(ctx, p.ID.String())
}

// Update applies a partial edit and re-prices the product when a cost input
// or its category changed.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	before := item.CostBasis()
	beforeCategory := item.CategoryID

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		item.SKU = normalizeSKU(req.SKU)
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		item.CategoryID = categoryID
	}
	if req.ExwPriceYuan != nil {
		item.ExwPriceYuan = *req.ExwPriceYuan
	}
	if req.UnitsPerCarton != nil {
		item.UnitsPerCarton = *req.UnitsPerCarton
	}
	if req.CartonLengthCm != nil {
		item.CartonLengthCm = *req.CartonLengthCm
	}
	if req.CartonWidthCm != nil {
		item.CartonWidthCm = *req.CartonWidthCm
	}
	if req.CartonHeightCm != nil {
		item.CartonHeightCm = *req.CartonHeightCm
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = s.clock.Now().UTC()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSKU
		}
		return nil, err
	}

	if before != item.CostBasis() || !sameID(beforeCategory, item.CategoryID) {
		if err := s.reprice(ctx, item.ID); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, item.ID.String())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, item.ID)
}

func (s *Service) Recalculate(ctx context.Context, id string) (*domain.RecalculateResponse, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	recalculated, err := s.repricer.RecalculateOne(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("recalculate product %s: %w", item.ID, err)
	}

	resp, err := s.Get(ctx, item.ID.String())
	if err != nil {
		return nil, err
	}
	return &domain.RecalculateResponse{Product: *resp, Recalculated: recalculated}, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// resolveCategory parses and checks a category reference. A nil or blank
// value means no category.
func (s *Service) resolveCategory(ctx context.Context, raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return &id, nil
}

func (s *Service) reprice(ctx context.Context, id snowflake.ID) error {
	if _, err := s.repricer.RecalculateOne(ctx, id); err != nil {
		s.log.Error("inline recalculation failed", zap.String("product_id", id.String()), zap.Error(err))
		return fmt.Errorf("recalculate product %s: %w", id, err)
	}
	return nil
}

func sameID(a, b *snowflake.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func normalizeSKU(value *string) *string {
	if value == nil {
		return nil
	}
	sku := strings.ToUpper(strings.TrimSpace(*value))
	if sku == "" {
		return nil
	}
	return &sku
}

func toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:             p.ID.String(),
		Name:           p.Name,
		SKU:            p.SKU,
		ExwPriceYuan:   p.ExwPriceYuan,
		UnitsPerCarton: p.UnitsPerCarton,
		CartonLengthCm: p.CartonLengthCm,
		CartonWidthCm:  p.CartonWidthCm,
		CartonHeightCm: p.CartonHeightCm,
		PriceResult:    p.Snapshot,
		PricedAt:       p.PricedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.CategoryID != nil {
		categoryID := p.CategoryID.String()
		resp.CategoryID = &categoryID
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}

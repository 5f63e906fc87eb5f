package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         categorydomain.Repository
	Recalculator categorydomain.Recalculator
}

type Service struct {
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         categorydomain.Repository
	recalculator categorydomain.Recalculator
}

func NewService(p Params) categorydomain.Service {
	return &Service{
		log:          p.Log.Named("category.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		recalculator: p.Recalculator,
	}
}

func (s *Service) List(ctx context.Context, req categorydomain.ListRequest) ([]categorydomain.Response, error) {
	filter := categorydomain.ListRequest{
		Name:    strings.TrimSpace(req.Name),
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]categorydomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}

	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*categorydomain.Response, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, categorydomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, categorydomain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req categorydomain.CreateRequest) (*categorydomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	now := s.clock.Now().UTC()
	record := &categorydomain.Category{
		ID:                 s.genID.Generate(),
		Name:               name,
		Code:               slug.Make(name),
		CustomsDutyPercent: req.CustomsDutyPercent,
		IgstPercent:        req.IgstPercent,
		HsCode:             normalizeHsCode(req.HsCode),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, categorydomain.ErrDuplicateName
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

// Update applies a partial edit. A change to either tax rate re-prices the
// category's products before returning; other edits never do.
func (s *Service) Update(ctx context.Context, req categorydomain.UpdateRequest) (*categorydomain.UpdateResponse, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, categorydomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, categorydomain.ErrNotFound
	}

	taxChanged := false
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
		item.Code = slug.Make(item.Name)
	}
	if req.CustomsDutyPercent != nil && *req.CustomsDutyPercent != item.CustomsDutyPercent {
		item.CustomsDutyPercent = *req.CustomsDutyPercent
		taxChanged = true
	}
	if req.IgstPercent != nil && *req.IgstPercent != item.IgstPercent {
		item.IgstPercent = *req.IgstPercent
		taxChanged = true
	}
	if req.HsCode != nil {
		item.HsCode = normalizeHsCode(req.HsCode)
	}

	item.UpdatedAt = s.clock.Now().UTC()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, categorydomain.ErrDuplicateName
		}
		return nil, err
	}

	resp := &categorydomain.UpdateResponse{Response: toResponse(item)}
	if !taxChanged {
		return resp, nil
	}

	count, err := s.recalculator.RecalculateCategory(ctx, item.ID)
	if err != nil {
		s.log.Error("category recalculation failed",
			zap.String("category_id", item.ID.String()),
			zap.Int("recalculated", count),
			zap.Error(err),
		)
		return nil, fmt.Errorf("recalculate category %s: %w", item.ID, err)
	}
	resp.RecalculatedProducts = &count

	s.log.Info("category tax rates changed",
		zap.String("category_id", item.ID.String()),
		zap.Int("recalculated", count),
	)
	return resp, nil
}

func normalizeHsCode(value *string) *string {
	if value == nil {
		return nil
	}
	code := strings.TrimSpace(*value)
	if code == "" {
		return nil
	}
	return &code
}

func toResponse(c *categorydomain.Category) categorydomain.Response {
	return categorydomain.Response{
		ID:                 c.ID.String(),
		Name:               c.Name,
		Code:               c.Code,
		CustomsDutyPercent: c.CustomsDutyPercent,
		IgstPercent:        c.IgstPercent,
		HsCode:             c.HsCode,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

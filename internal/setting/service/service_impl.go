package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/internal/config"
	"github.com/smallbiznis/storekeep/internal/observability/metrics"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    settingdomain.Repository
	Pricing *config.PricingConfigHolder `optional:"true"`
	Metrics *metrics.Metrics            `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    settingdomain.Repository
	pricing *config.PricingConfigHolder
	metrics *metrics.Metrics
}

func NewService(p Params) settingdomain.Service {
	return &Service{
		log:     p.Log.Named("setting.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		pricing: p.Pricing,
		metrics: p.Metrics,
	}
}

func (s *Service) GetSettingsMap(ctx context.Context) (pricingdomain.Coefficients, error) {
	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return pricingdomain.Coefficients{}, fmt.Errorf("load settings: %w", err)
	}

	values := s.defaults()
	for _, row := range rows {
		if _, known := values[row.Key]; !known {
			continue
		}
		v, ok := parseValue(row.Value)
		if !ok {
			s.log.Debug("ignoring unparsable setting", zap.String("key", row.Key))
			continue
		}
		values[row.Key] = v
	}

	return pricingdomain.Coefficients{
		ExchangeRate:       values[settingdomain.KeyExchangeRate],
		SourcingCommission: values[settingdomain.KeySourcingCommission],
		FreightPerCbm:      values[settingdomain.KeyFreightPerCbm],
		InsurancePercent:   values[settingdomain.KeyInsurancePercent],
		SwSurchargePercent: values[settingdomain.KeySwSurchargePercent],
		OurMarkupPercent:   values[settingdomain.KeyOurMarkupPercent],
		TargetStoreMargin:  values[settingdomain.KeyTargetStoreMargin],
	}, nil
}

func (s *Service) Upsert(ctx context.Context, req settingdomain.UpsertRequest) (*settingdomain.Response, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, settingdomain.ErrInvalidKey
	}
	value := string(req.Value)
	if strings.TrimSpace(value) == "" {
		return nil, settingdomain.ErrInvalidValue
	}

	def, known := settingdomain.LookupDefinition(key)
	label := key
	if known {
		label = def.Label
	}
	if req.Label != nil {
		if l := strings.TrimSpace(*req.Label); l != "" {
			label = l
		}
	}

	now := s.clock.Now().UTC()
	record := &settingdomain.Setting{
		ID:        s.genID.Generate(),
		Key:       key,
		Value:     value,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, record, req.Label != nil); err != nil {
		return nil, fmt.Errorf("upsert setting %s: %w", key, err)
	}

	stored, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reload setting %s: %w", key, err)
	}
	if stored == nil {
		stored = record
	}

	s.metrics.RecordSettingUpsert(ctx, key, known)
	s.log.Info("setting upserted", zap.String("key", key), zap.Bool("known", known))

	resp := s.toResponse(stored)
	return &resp, nil
}

// List returns every default-table entry, overlaid with its stored row when
// one exists, followed by stored keys the engine does not read.
func (s *Service) List(ctx context.Context) ([]settingdomain.Response, error) {
	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	byKey := make(map[string]*settingdomain.Setting, len(rows))
	for _, row := range rows {
		byKey[row.Key] = row
	}

	resp := make([]settingdomain.Response, 0, len(rows)+len(settingdomain.Definitions()))
	for _, def := range settingdomain.Definitions() {
		if row, ok := byKey[def.Key]; ok {
			resp = append(resp, s.toResponse(row))
			delete(byKey, def.Key)
			continue
		}
		dflt := s.defaultFor(def)
		resp = append(resp, settingdomain.Response{
			Key:            def.Key,
			Value:          decimal.NewFromFloat(dflt).String(),
			Label:          def.Label,
			DefaultValue:   floatPtr(dflt),
			EffectiveValue: floatPtr(dflt),
			Valid:          true,
		})
	}

	extra := make([]string, 0, len(byKey))
	for key := range byKey {
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		resp = append(resp, s.toResponse(byKey[key]))
	}

	return resp, nil
}

func (s *Service) defaults() map[string]float64 {
	values := make(map[string]float64, len(settingdomain.Definitions()))
	for _, def := range settingdomain.Definitions() {
		values[def.Key] = s.defaultFor(def)
	}
	return values
}

func (s *Service) defaultFor(def settingdomain.Definition) float64 {
	if v, ok := s.pricing.Get().Default(def.Key); ok {
		return v
	}
	return def.Default
}

func (s *Service) toResponse(row *settingdomain.Setting) settingdomain.Response {
	createdAt := row.CreatedAt
	updatedAt := row.UpdatedAt
	resp := settingdomain.Response{
		ID:        row.ID.String(),
		Key:       row.Key,
		Value:     row.Value,
		Label:     row.Label,
		Stored:    true,
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}

	parsed, ok := parseValue(row.Value)
	resp.Valid = ok

	def, known := settingdomain.LookupDefinition(row.Key)
	if !known {
		if ok {
			resp.EffectiveValue = floatPtr(parsed)
		}
		return resp
	}

	dflt := s.defaultFor(def)
	resp.DefaultValue = floatPtr(dflt)
	if ok {
		resp.EffectiveValue = floatPtr(parsed)
	} else {
		resp.EffectiveValue = floatPtr(dflt)
	}
	return resp
}

func parseValue(raw string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	v := d.InexactFloat64()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func floatPtr(v float64) *float64 { return &v }

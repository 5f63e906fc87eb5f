package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	categoryrepo "github.com/smallbiznis/storekeep/internal/category/repository"
	"github.com/smallbiznis/storekeep/internal/clock"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/internal/pricing/engine"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	productrepo "github.com/smallbiznis/storekeep/internal/product/repository"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	settingrepo "github.com/smallbiznis/storekeep/internal/setting/repository"
	settingservice "github.com/smallbiznis/storekeep/internal/setting/service"
	"github.com/smallbiznis/storekeep/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var pricedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      *Service
	products productdomain.Repository
	settings settingdomain.Service
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &categorydomain.Category{}, &productdomain.Product{}, &settingdomain.Setting{})
	node := dbtest.Node(t)
	fakeClock := clock.NewFakeClock(pricedAt)

	settings := settingservice.NewService(settingservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  settingrepo.NewRepository(db),
	})
	products := productrepo.NewRepository()

	svc := NewService(Params{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fakeClock,
		ProductRepo:  products,
		CategoryRepo: categoryrepo.NewRepository(db),
		Settings:     settings,
	})

	return &fixture{db: db, node: node, svc: svc, products: products, settings: settings, clock: fakeClock}
}

func (f *fixture) category(t *testing.T, name string, duty, igst float64) snowflake.ID {
	t.Helper()
	c := &categorydomain.Category{
		ID:                 f.node.Generate(),
		Name:               name,
		Code:               name,
		CustomsDutyPercent: duty,
		IgstPercent:        igst,
		CreatedAt:          pricedAt,
		UpdatedAt:          pricedAt,
	}
	require.NoError(t, f.db.Create(c).Error)
	return c.ID
}

func (f *fixture) product(t *testing.T, categoryID *snowflake.ID, basis pricingdomain.CostBasis) snowflake.ID {
	t.Helper()
	p := &productdomain.Product{
		ID:             f.node.Generate(),
		Name:           "item",
		CategoryID:     categoryID,
		ExwPriceYuan:   basis.ExwPriceYuan,
		UnitsPerCarton: basis.UnitsPerCarton,
		CartonLengthCm: basis.CartonLengthCm,
		CartonWidthCm:  basis.CartonWidthCm,
		CartonHeightCm: basis.CartonHeightCm,
		CreatedAt:      pricedAt,
		UpdatedAt:      pricedAt,
	}
	require.NoError(t, f.products.Create(context.Background(), f.db, p))
	return p.ID
}

func (f *fixture) load(t *testing.T, id snowflake.ID) *productdomain.Product {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

var (
	organizerBasis = pricingdomain.CostBasis{ExwPriceYuan: 8.5, UnitsPerCarton: 24, CartonLengthCm: 50, CartonWidthCm: 40, CartonHeightCm: 35}
	hookBasis      = pricingdomain.CostBasis{ExwPriceYuan: 4, UnitsPerCarton: 12, CartonLengthCm: 30, CartonWidthCm: 20, CartonHeightCm: 20}
	unpricedBasis  = pricingdomain.CostBasis{ExwPriceYuan: 0, UnitsPerCarton: 10, CartonLengthCm: 10, CartonWidthCm: 10, CartonHeightCm: 10}
)

func ptrID(id snowflake.ID) *snowflake.ID { return &id }

func TestRecalculateOne_PersistsSnapshot(t *testing.T) {
	f := newFixture(t)
	kitchen := f.category(t, "kitchen", 5, 18)
	id := f.product(t, ptrID(kitchen), organizerBasis)

	ok, err := f.svc.RecalculateOne(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)

	p := f.load(t, id)
	require.NotNil(t, p.PricedAt)
	assert.True(t, p.PricedAt.Equal(pricedAt))
	assert.InDelta(t, 163.04, p.Snapshot.TotalLandedCost, 1e-9)
	assert.InDelta(t, 203.80, p.Snapshot.StoreLandingPrice, 1e-9)
	assert.Equal(t, 499.0, p.Snapshot.SuggestedMrp)
	assert.InDelta(t, 59.2, p.Snapshot.StoreMarginPercent, 1e-9)
	assert.False(t, p.Snapshot.MarginWarning)
}

func TestRecalculateOne_SkipsWithoutError(t *testing.T) {
	f := newFixture(t)
	kitchen := f.category(t, "kitchen", 5, 18)
	ctx := context.Background()

	zeroCost := f.product(t, ptrID(kitchen), unpricedBasis)
	ok, err := f.svc.RecalculateOne(ctx, zeroCost)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, f.load(t, zeroCost).PricedAt)

	uncategorized := f.product(t, nil, organizerBasis)
	ok, err = f.svc.RecalculateOne(ctx, uncategorized)
	require.NoError(t, err)
	assert.False(t, ok)

	orphan := f.product(t, ptrID(f.node.Generate()), organizerBasis)
	ok, err = f.svc.RecalculateOne(ctx, orphan)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, f.load(t, orphan).PricedAt)

	ok, err = f.svc.RecalculateOne(ctx, f.node.Generate())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecalculateOne_ReadsCurrentSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kitchen := f.category(t, "kitchen", 5, 18)
	id := f.product(t, ptrID(kitchen), organizerBasis)

	_, err := f.settings.Upsert(ctx, settingdomain.UpsertRequest{Key: settingdomain.KeyExchangeRate, Value: "13"})
	require.NoError(t, err)
	_, err = f.settings.Upsert(ctx, settingdomain.UpsertRequest{Key: settingdomain.KeyOurMarkupPercent, Value: "not a number"})
	require.NoError(t, err)

	ok, err := f.svc.RecalculateOne(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	coeff, err := f.settings.GetSettingsMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13.0, coeff.ExchangeRate)
	assert.Equal(t, 25.0, coeff.OurMarkupPercent)

	want := engine.CalculatePrices(pricingdomain.NewPriceInputs(organizerBasis,
		pricingdomain.CategoryRates{CustomsDutyPercent: 5, IgstPercent: 18}, coeff))
	assert.Equal(t, want, f.load(t, id).Snapshot)
}

func TestRecalculateCategory_ScopedToCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kitchen := f.category(t, "kitchen", 10, 12)
	bath := f.category(t, "bath", 5, 18)

	hook := f.product(t, ptrID(kitchen), hookBasis)
	unpriced := f.product(t, ptrID(kitchen), unpricedBasis)
	organizer := f.product(t, ptrID(bath), organizerBasis)

	count, err := f.svc.RecalculateCategory(ctx, bath)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	before := f.load(t, organizer)
	require.NotNil(t, before.PricedAt)

	_, err = f.settings.Upsert(ctx, settingdomain.UpsertRequest{Key: settingdomain.KeyExchangeRate, Value: "13"})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	count, err = f.svc.RecalculateCategory(ctx, kitchen)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	coeff, err := f.settings.GetSettingsMap(ctx)
	require.NoError(t, err)
	p := f.load(t, hook)
	require.NotNil(t, p.PricedAt)
	assert.True(t, p.PricedAt.Equal(pricedAt.Add(time.Hour)))
	assert.Equal(t, engine.CalculatePrices(pricingdomain.NewPriceInputs(hookBasis,
		pricingdomain.CategoryRates{CustomsDutyPercent: 10, IgstPercent: 12}, coeff)), p.Snapshot)

	assert.Nil(t, f.load(t, unpriced).PricedAt)

	after := f.load(t, organizer)
	assert.Equal(t, before.Snapshot, after.Snapshot)
	require.NotNil(t, after.PricedAt)
	assert.True(t, before.PricedAt.Equal(*after.PricedAt))
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestRecalculateCategory_PicksUpRateChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kitchen := f.category(t, "kitchen", 10, 12)
	hook := f.product(t, ptrID(kitchen), hookBasis)

	_, err := f.svc.RecalculateCategory(ctx, kitchen)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&categorydomain.Category{}).Where("id = ?", kitchen).Update("igst_percent", 18).Error)

	count, err := f.svc.RecalculateCategory(ctx, kitchen)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	p := f.load(t, hook)
	assert.InDelta(t, 11.72, p.Snapshot.ImportTax, 1e-9)
	assert.InDelta(t, 76.82, p.Snapshot.TotalLandedCost, 1e-9)
	assert.InDelta(t, 96.03, p.Snapshot.StoreLandingPrice, 1e-9)
	assert.Equal(t, 199.0, p.Snapshot.SuggestedMrp)
}

func TestRecalculateAll_CountsOnlyRecomputed(t *testing.T) {
	f := newFixture(t)
	kitchen := f.category(t, "kitchen", 10, 12)
	bath := f.category(t, "bath", 5, 18)

	f.product(t, ptrID(kitchen), hookBasis)
	f.product(t, ptrID(bath), organizerBasis)
	f.product(t, ptrID(bath), unpricedBasis)
	f.product(t, nil, organizerBasis)

	count, err := f.svc.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

type failingSnapshotRepo struct {
	productdomain.Repository
	failAfter int
	saved     int
}

func (r *failingSnapshotRepo) SaveSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, result pricingdomain.PriceResult, at time.Time) error {
	if r.saved >= r.failAfter {
		return errors.New("connection reset by peer")
	}
	r.saved++
	return r.Repository.SaveSnapshot(ctx, db, id, result, at)
}

func TestRecalculateAll_StopsAndReportsPartialCount(t *testing.T) {
	f := newFixture(t)
	kitchen := f.category(t, "kitchen", 10, 12)
	first := f.product(t, ptrID(kitchen), hookBasis)
	second := f.product(t, ptrID(kitchen), organizerBasis)
	third := f.product(t, ptrID(kitchen), hookBasis)

	f.svc.productRepo = &failingSnapshotRepo{Repository: f.products, failAfter: 1}

	count, err := f.svc.RecalculateAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, count)

	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 1, batchErr.Recalculated)
	assert.Equal(t, "all", batchErr.Scope)
	assert.Contains(t, batchErr.Unwrap().Error(), "connection reset")

	assert.NotNil(t, f.load(t, first).PricedAt)
	assert.Nil(t, f.load(t, second).PricedAt)
	assert.Nil(t, f.load(t, third).PricedAt)
}

func TestRecalculateAll_CompletesAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	kitchen := f.category(t, "kitchen", 10, 12)
	first := f.product(t, ptrID(kitchen), hookBasis)
	second := f.product(t, ptrID(kitchen), organizerBasis)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := f.svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NotNil(t, f.load(t, first).PricedAt)
	assert.NotNil(t, f.load(t, second).PricedAt)
}

func TestRecalculateOne_OverflowKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kitchen := f.category(t, "kitchen", 5, 18)
	id := f.product(t, ptrID(kitchen), organizerBasis)

	_, err := f.svc.RecalculateOne(ctx, id)
	require.NoError(t, err)
	before := f.load(t, id)

	_, err = f.settings.Upsert(ctx, settingdomain.UpsertRequest{Key: settingdomain.KeyExchangeRate, Value: "1e308"})
	require.NoError(t, err)

	var ok bool
	require.NotPanics(t, func() { ok, err = f.svc.RecalculateOne(ctx, id) })
	require.NoError(t, err)
	assert.False(t, ok)

	after := f.load(t, id)
	assert.Equal(t, before.Snapshot, after.Snapshot)
	assert.True(t, before.PricedAt.Equal(*after.PricedAt))

	count, err := f.svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPreview_RejectsOverflow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Preview(context.Background(), pricingdomain.PreviewRequest{
		ExwPriceYuan:        1e308,
		UnitsPerCarton:      12,
		CartonLengthCm:      30,
		CartonWidthCm:       20,
		CartonHeightCm:      20,
		CategoryDutyPercent: 10,
		CategoryIgstPercent: 12,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrPriceOutOfRange)
}

func TestPreview_UsesStoredCategoryRates(t *testing.T) {
	f := newFixture(t)
	kitchen := f.category(t, "kitchen", 5, 18)

	resp, err := f.svc.Preview(context.Background(), pricingdomain.PreviewRequest{
		CategoryID:          kitchen.String(),
		ExwPriceYuan:        organizerBasis.ExwPriceYuan,
		UnitsPerCarton:      organizerBasis.UnitsPerCarton,
		CartonLengthCm:      organizerBasis.CartonLengthCm,
		CartonWidthCm:       organizerBasis.CartonWidthCm,
		CartonHeightCm:      organizerBasis.CartonHeightCm,
		CategoryDutyPercent: 99,
		CategoryIgstPercent: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, resp.Inputs.CategoryDutyPercent)
	assert.Equal(t, 18.0, resp.Inputs.CategoryIgstPercent)
	assert.Equal(t, 12.0, resp.Inputs.ExchangeRate)
	assert.Equal(t, 499.0, resp.Result.SuggestedMrp)

	var count int64
	require.NoError(t, f.db.Model(&productdomain.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPreview_ExplicitRatesAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Preview(ctx, pricingdomain.PreviewRequest{
		ExwPriceYuan:        4,
		UnitsPerCarton:      12,
		CartonLengthCm:      30,
		CartonWidthCm:       20,
		CartonHeightCm:      20,
		CategoryDutyPercent: 10,
		CategoryIgstPercent: 12,
	})
	require.NoError(t, err)
	assert.InDelta(t, 72.92, resp.Result.TotalLandedCost, 1e-9)

	_, err = f.svc.Preview(ctx, pricingdomain.PreviewRequest{ExwPriceYuan: -1})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidExwPriceYuan)

	_, err = f.svc.Preview(ctx, pricingdomain.PreviewRequest{UnitsPerCarton: -1})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidUnitsPerCarton)

	_, err = f.svc.Preview(ctx, pricingdomain.PreviewRequest{CartonWidthCm: -1})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidCartonDimensions)

	_, err = f.svc.Preview(ctx, pricingdomain.PreviewRequest{CategoryIgstPercent: -1})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidCategoryRate)

	_, err = f.svc.Preview(ctx, pricingdomain.PreviewRequest{CategoryID: "abc"})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidID)

	_, err = f.svc.Preview(ctx, pricingdomain.PreviewRequest{CategoryID: f.node.Generate().String()})
	assert.ErrorIs(t, err, pricingdomain.ErrCategoryNotFound)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/category/repository"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRecalculator struct {
	mock.Mock
}

func (m *mockRecalculator) RecalculateCategory(ctx context.Context, categoryID snowflake.ID) (int, error) {
	args := m.Called(ctx, categoryID)
	return args.Int(0), args.Error(1)
}

func newTestService(t *testing.T, recalc categorydomain.Recalculator) categorydomain.Service {
	t.Helper()
	db := dbtest.Open(t, &categorydomain.Category{})
	return NewService(Params{
		Log:          zap.NewNop(),
		GenID:        dbtest.Node(t),
		Clock:        clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:         repository.NewRepository(db),
		Recalculator: recalc,
	})
}

func ptr[T any](v T) *T { return &v }

func TestCreate_DerivesCodeAndValidates(t *testing.T) {
	svc := newTestService(t, &mockRecalculator{})
	ctx := context.Background()

	resp, err := svc.Create(ctx, categorydomain.CreateRequest{
		Name:               "  Kitchen Storage ",
		CustomsDutyPercent: 10,
		IgstPercent:        18,
		HsCode:             ptr(" 3924 "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kitchen Storage", resp.Name)
	assert.Equal(t, "kitchen-storage", resp.Code)
	require.NotNil(t, resp.HsCode)
	assert.Equal(t, "3924", *resp.HsCode)

	_, err = svc.Create(ctx, categorydomain.CreateRequest{Name: " "})
	assert.True(t, errors.Is(err, categorydomain.ErrInvalidName))

	_, err = svc.Create(ctx, categorydomain.CreateRequest{Name: "Toys", CustomsDutyPercent: -1})
	assert.True(t, errors.Is(err, categorydomain.ErrInvalidCustomsDuty))

	_, err = svc.Create(ctx, categorydomain.CreateRequest{Name: "Toys", IgstPercent: -5})
	assert.True(t, errors.Is(err, categorydomain.ErrInvalidIgst))
}

func TestCreate_DuplicateName(t *testing.T) {
	svc := newTestService(t, &mockRecalculator{})
	ctx := context.Background()

	_, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Toys"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, categorydomain.CreateRequest{Name: "Toys"})
	assert.True(t, errors.Is(err, categorydomain.ErrDuplicateName))
}

func TestGetAndList(t *testing.T) {
	svc := newTestService(t, &mockRecalculator{})
	ctx := context.Background()

	created, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Bath"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, categorydomain.CreateRequest{Name: "Bathroom Decor"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, categorydomain.CreateRequest{Name: "Toys"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bath", got.Name)

	_, err = svc.Get(ctx, "not-an-id")
	assert.True(t, errors.Is(err, categorydomain.ErrInvalidID))

	_, err = svc.Get(ctx, "12345")
	assert.True(t, errors.Is(err, categorydomain.ErrNotFound))

	items, err := svc.List(ctx, categorydomain.ListRequest{Name: "bath", SortBy: "name", OrderBy: "desc"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bathroom Decor", items[0].Name)
	assert.Equal(t, "Bath", items[1].Name)
}

func TestUpdate_TaxChangeCascades(t *testing.T) {
	recalc := &mockRecalculator{}
	svc := newTestService(t, recalc)
	ctx := context.Background()

	created, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Kitchen", CustomsDutyPercent: 10, IgstPercent: 12})
	require.NoError(t, err)
	id, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	recalc.On("RecalculateCategory", mock.Anything, id).Return(3, nil).Once()

	resp, err := svc.Update(ctx, categorydomain.UpdateRequest{ID: created.ID, IgstPercent: ptr(18.0)})
	require.NoError(t, err)
	assert.Equal(t, 18.0, resp.IgstPercent)
	require.NotNil(t, resp.RecalculatedProducts)
	assert.Equal(t, 3, *resp.RecalculatedProducts)
	recalc.AssertExpectations(t)
}

func TestUpdate_NonTaxEditDoesNotCascade(t *testing.T) {
	recalc := &mockRecalculator{}
	svc := newTestService(t, recalc)
	ctx := context.Background()

	created, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Kitchen", CustomsDutyPercent: 10, IgstPercent: 12})
	require.NoError(t, err)

	resp, err := svc.Update(ctx, categorydomain.UpdateRequest{
		ID:                 created.ID,
		Name:               ptr("Kitchen & Dining"),
		HsCode:             ptr("3924"),
		CustomsDutyPercent: ptr(10.0),
		IgstPercent:        ptr(12.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "kitchen-and-dining", resp.Code)
	assert.Nil(t, resp.RecalculatedProducts)
	recalc.AssertNotCalled(t, "RecalculateCategory", mock.Anything, mock.Anything)
}

func TestUpdate_ReportsZeroWhenCategoryHasNoProducts(t *testing.T) {
	recalc := &mockRecalculator{}
	svc := newTestService(t, recalc)
	ctx := context.Background()

	created, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Garden"})
	require.NoError(t, err)

	recalc.On("RecalculateCategory", mock.Anything, mock.Anything).Return(0, nil).Once()

	resp, err := svc.Update(ctx, categorydomain.UpdateRequest{ID: created.ID, CustomsDutyPercent: ptr(7.5)})
	require.NoError(t, err)
	require.NotNil(t, resp.RecalculatedProducts)
	assert.Equal(t, 0, *resp.RecalculatedProducts)
}

func TestUpdate_RecalculationErrorPropagates(t *testing.T) {
	recalc := &mockRecalculator{}
	svc := newTestService(t, recalc)
	ctx := context.Background()

	created, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Garden"})
	require.NoError(t, err)

	boom := errors.New("connection reset")
	recalc.On("RecalculateCategory", mock.Anything, mock.Anything).Return(1, boom).Once()

	_, err = svc.Update(ctx, categorydomain.UpdateRequest{ID: created.ID, IgstPercent: ptr(5.0)})
	assert.ErrorIs(t, err, boom)

	// The rate change itself is committed.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.IgstPercent)
}

func TestUpdate_ValidationAndNotFound(t *testing.T) {
	svc := newTestService(t, &mockRecalculator{})
	ctx := context.Background()

	_, err := svc.Update(ctx, categorydomain.UpdateRequest{ID: "x"})
	assert.True(t, errors.Is(err, categorydomain.ErrInvalidID))

	_, err = svc.Update(ctx, categorydomain.UpdateRequest{ID: "42"})
	assert.True(t, errors.Is(err, categorydomain.ErrNotFound))

	created, err := svc.Create(ctx, categorydomain.CreateRequest{Name: "Garden"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, categorydomain.UpdateRequest{ID: created.ID, IgstPercent: ptr(-1.0)})
	assert.True(t, errors.Is(err, categorydomain.ErrInvalidIgst))
}

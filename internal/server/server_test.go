package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	categoryrepo "github.com/smallbiznis/storekeep/internal/category/repository"
	categoryservice "github.com/smallbiznis/storekeep/internal/category/service"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/internal/config"
	"github.com/smallbiznis/storekeep/internal/observability"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/internal/pricing/export"
	pricingservice "github.com/smallbiznis/storekeep/internal/pricing/service"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	productrepo "github.com/smallbiznis/storekeep/internal/product/repository"
	productservice "github.com/smallbiznis/storekeep/internal/product/service"
	"github.com/smallbiznis/storekeep/internal/providers/pdf"
	"github.com/smallbiznis/storekeep/internal/ratelimit"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	settingrepo "github.com/smallbiznis/storekeep/internal/setting/repository"
	settingservice "github.com/smallbiznis/storekeep/internal/setting/service"
	"github.com/smallbiznis/storekeep/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t, &settingdomain.Setting{}, &categorydomain.Category{}, &productdomain.Product{})
	node := dbtest.Node(t)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(testNow)

	settings := settingservice.NewService(settingservice.Params{
		Log:   log,
		GenID: node,
		Clock: fakeClock,
		Repo:  settingrepo.NewRepository(db),
	})
	categories := categoryrepo.NewRepository(db)
	products := productrepo.NewRepository()

	pricing := pricingservice.NewService(pricingservice.Params{
		DB:           db,
		Log:          log,
		Clock:        fakeClock,
		ProductRepo:  products,
		CategoryRepo: categories,
		Settings:     settings,
	})
	categorySvc := categoryservice.NewService(categoryservice.Params{
		Log:          log,
		GenID:        node,
		Clock:        fakeClock,
		Repo:         categories,
		Recalculator: pricing,
	})
	productSvc := productservice.New(productservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fakeClock,
		Repo:         products,
		CategoryRepo: categories,
		Repricer:     pricing,
	})

	return NewServer(ServerParams{
		Gin:         NewEngine(observability.Config{}, nil),
		Cfg:         config.Config{Environment: "test"},
		CategorySvc: categorySvc,
		SettingSvc:  settings,
		ProductSvc:  productSvc,
		PricingSvc:  pricing,
		ExportSvc: export.NewService(export.Params{
			Log:        log,
			Clock:      fakeClock,
			Products:   productSvc,
			Categories: categorySvc,
			PDF:        pdf.New(),
		}),
		ExportLimiter: ratelimit.NewExportLimiter(nil, config.Config{}),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := decode(t, rec)
	d, ok := out["data"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return d
}

func firstValidationError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	payload := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "validation_error", payload["type"])
	errs := payload["errors"].([]any)
	require.NotEmpty(t, errs)
	return errs[0].(map[string]any)
}

func createCategory(t *testing.T, s *Server, name string, duty, igst float64) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/categories", map[string]any{
		"name":               name,
		"customsDutyPercent": duty,
		"igstPercent":        igst,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(t, rec)["id"].(string)
}

func createHook(t *testing.T, s *Server, categoryID string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/products", map[string]any{
		"name":           "Wall hook",
		"sku":            "hk-12",
		"categoryId":     categoryID,
		"exwPriceYuan":   4,
		"unitsPerCarton": 12,
		"cartonLengthCm": 30,
		"cartonWidthCm":  20,
		"cartonHeightCm": 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	d := data(t, rec)
	assert.InDelta(t, 72.92, d["totalLandedCost"], 1e-9)
	assert.EqualValues(t, 199, d["suggestedMrp"])
	return d["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategoryRoutes(t *testing.T) {
	s := newTestServer(t)
	id := createCategory(t, s, "Bath Fittings", 10, 12)

	rec := doJSON(t, s, http.MethodGet, "/api/categories/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bath-fittings", data(t, rec)["code"])

	rec = doJSON(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "bath fittings"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_name", decode(t, rec)["error"].(map[string]any)["code"])

	rec = doJSON(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "Garden", "customsDutyPercent": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "customs_duty_percent", firstValidationError(t, rec)["field"])

	rec = doJSON(t, s, http.MethodGet, "/api/categories/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestUpdateCategory_ReportsCascade(t *testing.T) {
	s := newTestServer(t)
	bath := createCategory(t, s, "Bath", 10, 12)
	kitchen := createCategory(t, s, "Kitchen", 10, 12)
	hook := createHook(t, s, bath)

	rec := doJSON(t, s, http.MethodPost, "/api/products", map[string]any{
		"name":           "Hook for kitchen",
		"categoryId":     kitchen,
		"exwPriceYuan":   4,
		"unitsPerCarton": 12,
		"cartonLengthCm": 30,
		"cartonWidthCm":  20,
		"cartonHeightCm": 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	other := data(t, rec)["id"].(string)

	rec = doJSON(t, s, http.MethodPatch, "/api/categories/"+bath, map[string]any{"igstPercent": 18})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["recalculatedProducts"])

	rec = doJSON(t, s, http.MethodGet, "/api/products/"+hook, nil)
	assert.InDelta(t, 76.82, data(t, rec)["totalLandedCost"], 1e-9)
	rec = doJSON(t, s, http.MethodGet, "/api/products/"+other, nil)
	assert.InDelta(t, 72.92, data(t, rec)["totalLandedCost"], 1e-9)

	rec = doJSON(t, s, http.MethodPatch, "/api/categories/"+bath, map[string]any{"hsCode": "7326"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, present := decode(t, rec)["recalculatedProducts"]
	assert.False(t, present)
}

func TestSettingRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/settings", map[string]any{"key": "exchange_rate", "value": 11.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := data(t, rec)
	assert.Equal(t, "11.5", d["value"])
	assert.Equal(t, true, d["stored"])

	rec = doJSON(t, s, http.MethodPut, "/api/settings", map[string]any{"key": "exchange_rate", "value": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_value", firstValidationError(t, rec)["code"])

	rec = doJSON(t, s, http.MethodPut, "/api/settings", map[string]any{"key": " ", "value": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "key", firstValidationError(t, rec)["field"])

	rec = doJSON(t, s, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], len(settingdomain.Definitions()))
}

func TestSettingChange_DoesNotReprice(t *testing.T) {
	s := newTestServer(t)
	bath := createCategory(t, s, "Bath", 10, 12)
	hook := createHook(t, s, bath)

	rec := doJSON(t, s, http.MethodPut, "/api/settings", map[string]any{"key": "exchange_rate", "value": "14"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/products/"+hook, nil)
	assert.InDelta(t, 72.92, data(t, rec)["totalLandedCost"], 1e-9)

	rec = doJSON(t, s, http.MethodPost, "/api/pricing/recalculate-all", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.NotEmpty(t, body["message"])

	rec = doJSON(t, s, http.MethodGet, "/api/products/"+hook, nil)
	assert.Greater(t, data(t, rec)["totalLandedCost"].(float64), 72.92)
}

func TestProductRoutes(t *testing.T) {
	s := newTestServer(t)
	bath := createCategory(t, s, "Bath", 10, 12)
	hook := createHook(t, s, bath)

	rec := doJSON(t, s, http.MethodPost, "/api/products", map[string]any{"name": "Dup", "sku": "HK-12"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/products", map[string]any{"name": "Orphan", "categoryId": "42"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category_id", firstValidationError(t, rec)["field"])

	rec = doJSON(t, s, http.MethodPatch, "/api/products/"+hook, map[string]any{"exwPriceYuan": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Greater(t, data(t, rec)["totalLandedCost"].(float64), 72.92)

	rec = doJSON(t, s, http.MethodPost, "/api/products/"+hook+"/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["recalculated"])

	rec = doJSON(t, s, http.MethodGet, "/api/products?margin_warning=false&page_size=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = doJSON(t, s, http.MethodGet, "/api/products?priced=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/products/"+hook, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/products/"+hook, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/products/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculatePrice(t *testing.T) {
	s := newTestServer(t)
	bath := createCategory(t, s, "Bath", 10, 12)

	rec := doJSON(t, s, http.MethodPost, "/api/pricing/calculate", map[string]any{
		"categoryId":     bath,
		"exwPriceYuan":   4,
		"unitsPerCarton": 12,
		"cartonLengthCm": 30,
		"cartonWidthCm":  20,
		"cartonHeightCm": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := data(t, rec)["result"].(map[string]any)
	assert.InDelta(t, 72.92, result["totalLandedCost"], 1e-9)

	rec = doJSON(t, s, http.MethodPost, "/api/pricing/calculate", map[string]any{"exwPriceYuan": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_exw_price_yuan", firstValidationError(t, rec)["code"])

	rec = doJSON(t, s, http.MethodPost, "/api/pricing/calculate", map[string]any{
		"categoryId":     bath,
		"exwPriceYuan":   1e308,
		"unitsPerCarton": 12,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	fieldErr := firstValidationError(t, rec)
	assert.Equal(t, "price_out_of_range", fieldErr["code"])
	assert.Equal(t, "exw_price_yuan", fieldErr["field"])
}

func TestExports(t *testing.T) {
	s := newTestServer(t)
	bath := createCategory(t, s, "Bath", 10, 12)
	createHook(t, s, bath)

	rec := doJSON(t, s, http.MethodGet, "/api/pricing/export/price-list.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "price-list-20260301.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue("Price List", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Wall hook", name)
	category, _ := f.GetCellValue("Price List", "C2")
	assert.Equal(t, "Bath", category)

	rec = doJSON(t, s, http.MethodGet, "/api/pricing/export/labels.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypePDF, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = doJSON(t, s, http.MethodGet, "/api/pricing/export/price-sheet.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestMapError(t *testing.T) {
	status, payload := mapError(pricingdomain.ErrRecalculationInProgress)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "recalculation_in_progress", payload.Code)

	batchErr := &pricingservice.BatchError{Scope: "all", Recalculated: 3, Err: errors.New("disk full")}
	status, payload = mapError(fmt.Errorf("recalculate category 1: %w", batchErr))
	assert.Equal(t, http.StatusInternalServerError, status)
	require.NotNil(t, payload.Recalculated)
	assert.Equal(t, 3, *payload.Recalculated)

	status, payload = mapError(fmt.Errorf("wrap: %w", productdomain.ErrInvalidUnitsPerCarton))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_units_per_carton", payload.Errors[0].Code)
	assert.Equal(t, "units_per_carton", payload.Errors[0].Field)

	status, _ = mapError(ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, status)

	errType, code := classifyErrorForLog(categorydomain.ErrNotFound)
	assert.Equal(t, "not_found", errType)
	assert.Empty(t, code)
}

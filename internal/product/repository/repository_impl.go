package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/smallbiznis/storekeep/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

// NewRepository returns the product store. Every call takes the handle to run on
// so services can pass a transaction.
func NewRepository() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	if filter.CategoryID != nil {
		stmt = stmt.Where("category_id = ?", *filter.CategoryID)
	}
	if name := strings.ToLower(strings.TrimSpace(filter.Name)); name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+name+"%")
	}
	if filter.MarginWarning != nil {
		stmt = stmt.Where("margin_warning = ?", *filter.MarginWarning)
	}
	if filter.Priced != nil {
		if *filter.Priced {
			stmt = stmt.Where("priced_at IS NOT NULL")
		} else {
			stmt = stmt.Where("priced_at IS NULL")
		}
	}

	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPriceableIDs(ctx context.Context, db *gorm.DB, categoryID *snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("exw_price_yuan > 0")
	if categoryID != nil {
		stmt = stmt.Where("category_id = ?", *categoryID)
	}
	if err := stmt.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, sku = ?, category_id = ?, exw_price_yuan = ?, units_per_carton = ?,
		     carton_length_cm = ?, carton_width_cm = ?, carton_height_cm = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		product.Name,
		product.SKU,
		product.CategoryID,
		product.ExwPriceYuan,
		product.UnitsPerCarton,
		product.CartonLengthCm,
		product.CartonWidthCm,
		product.CartonHeightCm,
		product.Metadata,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repo) SaveSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, result pricingdomain.PriceResult, pricedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET fob_price_foreign = ?, fob_price_local = ?, cbm_per_unit = ?, freight_per_unit = ?,
		     insurance_local = ?, cif_price_local = ?, customs_duty = ?, sw_surcharge = ?,
		     assessable_value = ?, import_tax = ?, total_landed_cost = ?, store_landing_price = ?,
		     suggested_mrp = ?, store_margin_percent = ?, store_margin_rs = ?, margin_warning = ?,
		     priced_at = ?
		 WHERE id = ?`,
		result.FobPriceForeign,
		result.FobPriceLocal,
		result.CbmPerUnit,
		result.FreightPerUnit,
		result.InsuranceLocal,
		result.CifPriceLocal,
		result.CustomsDuty,
		result.SwSurcharge,
		result.AssessableValue,
		result.ImportTax,
		result.TotalLandedCost,
		result.StoreLandingPrice,
		result.SuggestedMrp,
		result.StoreMarginPercent,
		result.StoreMarginRs,
		result.MarginWarning,
		pricedAt,
		id,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id).Error
}

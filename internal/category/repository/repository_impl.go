package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) categorydomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, category *categorydomain.Category) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO categories (
			id, name, code, customs_duty_percent, igst_percent, hs_code, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Code,
		category.CustomsDutyPercent,
		category.IgstPercent,
		category.HsCode,
		category.CreatedAt,
		category.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*categorydomain.Category, error) {
	var category categorydomain.Category
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, code, customs_duty_percent, igst_percent, hs_code, created_at, updated_at
		 FROM categories
		 WHERE id = ?`,
		id,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repository) List(ctx context.Context, filter categorydomain.ListRequest) ([]categorydomain.Category, error) {
	var items []categorydomain.Category
	stmt := r.db.WithContext(ctx).Model(&categorydomain.Category{})

	if name := strings.ToLower(strings.TrimSpace(filter.Name)); name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+name+"%")
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, category *categorydomain.Category) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE categories
		 SET name = ?, code = ?, customs_duty_percent = ?, igst_percent = ?, hs_code = ?, updated_at = ?
		 WHERE id = ?`,
		category.Name,
		category.Code,
		category.CustomsDutyPercent,
		category.IgstPercent,
		category.HsCode,
		category.UpdatedAt,
		category.ID,
	).Error
}

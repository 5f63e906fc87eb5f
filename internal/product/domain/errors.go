package domain

import "errors"

var (
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidCategory         = errors.New("invalid_category")
	ErrInvalidExwPriceYuan     = errors.New("invalid_exw_price_yuan")
	ErrInvalidUnitsPerCarton   = errors.New("invalid_units_per_carton")
	ErrInvalidCartonDimensions = errors.New("invalid_carton_dimensions")
	ErrInvalidPageToken        = errors.New("invalid_page_token")
	ErrDuplicateSKU            = errors.New("duplicate_sku")
	ErrCategoryNotFound        = errors.New("category_not_found")
	ErrNotFound                = errors.New("not_found")
)

package domain

import "errors"

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidExwPriceYuan     = errors.New("invalid_exw_price_yuan")
	ErrInvalidUnitsPerCarton   = errors.New("invalid_units_per_carton")
	ErrInvalidCartonDimensions = errors.New("invalid_carton_dimensions")
	ErrInvalidCategoryRate     = errors.New("invalid_category_rate")
	ErrCategoryNotFound        = errors.New("category_not_found")
	ErrPriceOutOfRange         = errors.New("price_out_of_range")
	ErrRecalculationInProgress = errors.New("recalculation_in_progress")
)

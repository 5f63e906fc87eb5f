package domain

import "errors"

var (
	ErrInvalidKey   = errors.New("invalid_key")
	ErrInvalidValue = errors.New("invalid_value")
)

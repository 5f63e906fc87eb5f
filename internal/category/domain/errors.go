package domain

import "errors"

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidCustomsDuty = errors.New("invalid_customs_duty_percent")
	ErrInvalidIgst        = errors.New("invalid_igst_percent")
	ErrDuplicateName      = errors.New("duplicate_name")
	ErrNotFound           = errors.New("not_found")
)

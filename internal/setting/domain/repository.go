package domain

import "context"

type Repository interface {
	FindAll(ctx context.Context) ([]*Setting, error)
	FindByKey(ctx context.Context, key string) (*Setting, error)
	// Upsert inserts setting or overwrites the stored value for its key.
	// The label is only overwritten when updateLabel is set.
	Upsert(ctx context.Context, setting *Setting, updateLabel bool) error
}

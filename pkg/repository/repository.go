package repository

import (
	"context"

	"github.com/smallbiznis/storekeep/pkg/db/option"
)

// Repository is a generic gorm store for tables written by upsert.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Upsert(ctx context.Context, resource *T, conflictColumns []string, updateColumns []string) error
}

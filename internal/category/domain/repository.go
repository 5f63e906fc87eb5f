package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, category *Category) error
	FindByID(ctx context.Context, id snowflake.ID) (*Category, error)
	List(ctx context.Context, filter ListRequest) ([]Category, error)
	Update(ctx context.Context, category *Category) error
}

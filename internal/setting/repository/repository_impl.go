package repository

import (
	"context"

	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"github.com/smallbiznis/storekeep/pkg/db/option"
	"github.com/smallbiznis/storekeep/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[settingdomain.Setting]
}

func NewRepository(db *gorm.DB) settingdomain.Repository {
	return &repo{store: repository.ProvideStore[settingdomain.Setting](db)}
}

func (r *repo) FindAll(ctx context.Context) ([]*settingdomain.Setting, error) {
	return r.store.Find(ctx, &settingdomain.Setting{},
		option.WithSortBy(option.WithQuerySortBy("key", "asc", map[string]bool{"key": true})),
	)
}

func (r *repo) FindByKey(ctx context.Context, key string) (*settingdomain.Setting, error) {
	return r.store.FindOne(ctx, &settingdomain.Setting{Key: key})
}

func (r *repo) Upsert(ctx context.Context, setting *settingdomain.Setting, updateLabel bool) error {
	columns := []string{"value", "updated_at"}
	if updateLabel {
		columns = append(columns, "label")
	}
	return r.store.Upsert(ctx, setting, []string{"key"}, columns)
}

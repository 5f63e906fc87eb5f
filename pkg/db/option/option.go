package option

import (
	"strings"

	"github.com/smallbiznis/storekeep/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// QuerySortBy is a user supplied sort checked against Allow.
type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{SortBy: sortBy, OrderBy: orderBy, Allow: allow}
}

func (q QuerySortBy) column() string {
	column := strings.ToLower(strings.TrimSpace(q.SortBy))
	if column != "" && q.Allow[column] {
		return column
	}
	if q.Allow["created_at"] {
		return "created_at"
	}
	return ""
}

// WithSortBy orders by the requested column, falling back to created_at when
// the column is not allowed. Direction defaults to ascending.
func WithSortBy(q QuerySortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := q.column()
		if column == "" {
			return db
		}
		return db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: column},
			Desc:   strings.EqualFold(strings.TrimSpace(q.OrderBy), "desc"),
		}).Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	})
}

// ApplyPagination fetches one row past the page so callers can tell whether
// more rows follow.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := p.Size()
		offset := 0
		if cursor, err := pagination.DecodeCursor(p.PageToken); err == nil && cursor != nil {
			offset = cursor.Offset
		}
		return db.Offset(offset).Limit(size + 1)
	})
}

package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Size clamps PageSize into [1, MaxPageSize].
func (p Pagination) Size() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

type Cursor struct {
	Offset int `json:"offset"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor returns nil for an empty token.
func DecodeCursor(data string) (*Cursor, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	if cursor.Offset < 0 {
		cursor.Offset = 0
	}

	return &cursor, nil
}

// Trim drops the look-ahead row fetched by ApplyPagination and builds the
// page info for the next request.
func Trim[T any](data []T, p Pagination) ([]T, PageInfo) {
	size := p.Size()
	if len(data) <= size {
		return data, PageInfo{}
	}

	offset := 0
	if cursor, err := DecodeCursor(p.PageToken); err == nil && cursor != nil {
		offset = cursor.Offset
	}
	token, err := EncodeCursor(Cursor{Offset: offset + size})
	if err != nil {
		return data[:size], PageInfo{}
	}
	return data[:size], PageInfo{NextPageToken: token, HasMore: true}
}

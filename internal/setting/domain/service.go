package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
)

type Service interface {
	// GetSettingsMap returns the effective coefficients: stored overrides
	// merged over the default table. Only storage errors are returned.
	GetSettingsMap(ctx context.Context) (pricingdomain.Coefficients, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
}

// Value accepts either a JSON string or a JSON number and keeps its text.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidValue
	}
	*v = Value(n.String())
	return nil
}

type UpsertRequest struct {
	Key   string  `json:"key"`
	Value Value   `json:"value"`
	Label *string `json:"label,omitempty"`
}

// Response describes one setting as the pricing engine sees it.
// Stored is false for default-table rows with no override; Valid is false
// when the stored value does not parse and the default is used instead.
type Response struct {
	ID             string     `json:"id,omitempty"`
	Key            string     `json:"key"`
	Value          string     `json:"value"`
	Label          string     `json:"label"`
	DefaultValue   *float64   `json:"defaultValue,omitempty"`
	EffectiveValue *float64   `json:"effectiveValue,omitempty"`
	Stored         bool       `json:"stored"`
	Valid          bool       `json:"valid"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateShelfLabels(ctx context.Context, labels []ShelfLabel) (io.Reader, error)
	GeneratePriceSheet(ctx context.Context, sheet PriceSheet) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)

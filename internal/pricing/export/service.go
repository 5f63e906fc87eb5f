package export

import (
	"context"
	"fmt"
	"io"

	categorydomain "github.com/smallbiznis/storekeep/internal/category/domain"
	"github.com/smallbiznis/storekeep/internal/clock"
	"github.com/smallbiznis/storekeep/internal/observability/metrics"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/smallbiznis/storekeep/internal/providers/pdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Products   productdomain.Service
	Categories categorydomain.Service
	PDF        pdf.Provider
	Metrics    *metrics.Metrics `optional:"true"`
}

// Service turns the current product snapshots into downloadable documents.
type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	products   productdomain.Service
	categories categorydomain.Service
	pdf        pdf.Provider
	metrics    *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:        p.Log.Named("export.service"),
		clock:      p.Clock,
		products:   p.Products,
		categories: p.Categories,
		pdf:        p.PDF,
		metrics:    p.Metrics,
	}
}

// PriceList returns the workbook and its download filename. The caller owns
// the file and must close it.
func (s *Service) PriceList(ctx context.Context, req productdomain.ListRequest) (*excelize.File, string, error) {
	rows, err := s.rows(ctx, req)
	if err != nil {
		return nil, "", err
	}

	f, err := BuildPriceList(rows)
	if err != nil {
		return nil, "", err
	}

	s.metrics.RecordExport(ctx, FormatXLSX)
	s.log.Info("price list exported", zap.Int("rows", len(rows)))
	return f, s.filename("price-list", FormatXLSX), nil
}

// ShelfLabels prints one label per priced product.
func (s *Service) ShelfLabels(ctx context.Context, req productdomain.ListRequest) (io.Reader, string, error) {
	rows, err := s.rows(ctx, req)
	if err != nil {
		return nil, "", err
	}

	labels := make([]pdf.ShelfLabel, 0, len(rows))
	for _, row := range rows {
		p := row.Product
		if p.PricedAt == nil || p.SuggestedMrp <= 0 {
			continue
		}
		label := pdf.ShelfLabel{
			Name:     p.Name,
			Category: row.Category,
			MRP:      formatMRP(p.SuggestedMrp),
		}
		if p.SKU != nil {
			label.SKU = *p.SKU
		}
		labels = append(labels, label)
	}

	doc, err := s.pdf.GenerateShelfLabels(ctx, labels)
	if err != nil {
		return nil, "", fmt.Errorf("generate shelf labels: %w", err)
	}

	s.metrics.RecordExport(ctx, FormatPDF)
	s.log.Info("shelf labels exported", zap.Int("labels", len(labels)))
	return doc, s.filename("shelf-labels", FormatPDF), nil
}

// PriceSheet prints a printable summary of every priced product.
func (s *Service) PriceSheet(ctx context.Context, req productdomain.ListRequest) (io.Reader, string, error) {
	rows, err := s.rows(ctx, req)
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now().UTC()
	sheet := pdf.PriceSheet{
		Title:       "Price list",
		GeneratedAt: now.Format("2006-01-02 15:04 UTC"),
		Rows:        make([]pdf.PriceSheetRow, 0, len(rows)),
	}
	for _, row := range rows {
		p := row.Product
		if p.PricedAt == nil {
			continue
		}
		sheet.Rows = append(sheet.Rows, pdf.PriceSheetRow{
			Name:         p.Name,
			Category:     row.Category,
			LandedCost:   formatAmount(p.TotalLandedCost),
			LandingPrice: formatAmount(p.StoreLandingPrice),
			MRP:          formatMRP(p.SuggestedMrp),
			Margin:       formatAmount(p.StoreMarginPercent) + "%",
			Warning:      p.MarginWarning,
		})
	}

	doc, err := s.pdf.GeneratePriceSheet(ctx, sheet)
	if err != nil {
		return nil, "", fmt.Errorf("generate price sheet: %w", err)
	}

	s.metrics.RecordExport(ctx, FormatPDF)
	return doc, s.filename("price-sheet", FormatPDF), nil
}

func (s *Service) rows(ctx context.Context, req productdomain.ListRequest) ([]Row, error) {
	products, err := s.products.ListAll(ctx, req)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.List(ctx, categorydomain.ListRequest{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rows := make([]Row, 0, len(products))
	for _, p := range products {
		row := Row{Product: p}
		if p.CategoryID != nil {
			row.Category = names[*p.CategoryID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) filename(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, s.clock.Now().UTC().Format("20060102"), ext)
}

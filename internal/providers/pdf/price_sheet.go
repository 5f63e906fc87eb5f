package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PriceSheet struct {
	Title       string
	GeneratedAt string
	Rows        []PriceSheetRow
}

type PriceSheetRow struct {
	Name         string
	Category     string
	LandedCost   string
	LandingPrice string
	MRP          string
	Margin       string
	Warning      bool
}

var warningColor = &props.Color{Red: 200, Green: 30, Blue: 30}

func (p *PDFProvider) GeneratePriceSheet(ctx context.Context, sheet PriceSheet) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, sheet.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, sheet.GeneratedAt, props.Text{Size: 8, Align: align.Right, Top: 4}),
	)

	m.AddRow(10,
		text.NewCol(4, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Category", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Landed cost", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Landing price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "MRP", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Margin", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range sheet.Rows {
		margin := props.Text{Size: 9, Align: align.Right}
		if row.Warning {
			margin.Color = warningColor
			margin.Style = fontstyle.Bold
		}
		m.AddRow(8,
			text.NewCol(4, row.Name, props.Text{Size: 9}),
			text.NewCol(2, row.Category, props.Text{Size: 9}),
			text.NewCol(2, row.LandedCost, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, row.LandingPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, row.MRP, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, row.Margin, margin),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(4, "Margin below target is shown in red", props.Text{Size: 7, Align: align.Right, Top: 3}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

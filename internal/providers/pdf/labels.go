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
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ShelfLabel is one printed price tag.
type ShelfLabel struct {
	Name     string
	SKU      string
	Category string
	MRP      string
}

const labelsPerRow = 3

func (p *PDFProvider) GenerateShelfLabels(ctx context.Context, labels []ShelfLabel) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	for start := 0; start < len(labels); start += labelsPerRow {
		cols := make([]core.Col, 0, labelsPerRow)
		for i := start; i < start+labelsPerRow; i++ {
			if i >= len(labels) {
				cols = append(cols, col.New(12/labelsPerRow))
				continue
			}
			cols = append(cols, labelCol(labels[i]))
		}
		m.AddRow(38, cols...)
	}

	if len(labels) == 0 {
		m.AddRow(10, text.NewCol(12, "No priced products", props.Text{Size: 10, Align: align.Center}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func labelCol(label ShelfLabel) core.Col {
	return col.New(12/labelsPerRow).Add(
		text.New(label.Name, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center, Top: 3}),
		text.New(label.SKU, props.Text{Size: 8, Align: align.Center, Top: 9}),
		text.New(label.Category, props.Text{Size: 8, Align: align.Center, Top: 13}),
		text.New("MRP Rs. "+label.MRP, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center, Top: 20}),
		text.New("Inclusive of all taxes", props.Text{Size: 6, Align: align.Center, Top: 29}),
	)
}

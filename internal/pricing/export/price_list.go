package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/xuri/excelize/v2"
)

const priceListSheet = "Price List"

// Row is one exported product with its category name resolved.
type Row struct {
	Product  productdomain.Response
	Category string
}

var priceListHeaders = []string{
	"Product",
	"SKU",
	"Category",
	"EXW (CNY)",
	"Units / Carton",
	"Landed Cost",
	"Store Landing Price",
	"MRP",
	"Store Margin %",
	"Store Margin (Rs)",
	"Margin Warning",
	"Priced At",
}

// BuildPriceList renders one row per product. Unpriced products keep empty
// price cells.
func BuildPriceList(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", priceListSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	warningStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "C00000"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range priceListHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(priceListSheet, col+"1", h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(priceListHeaders))
	f.SetCellStyle(priceListSheet, "A1", lastCol+"1", headerStyle)

	for i, row := range rows {
		r := i + 2
		p := row.Product
		f.SetCellValue(priceListSheet, fmt.Sprintf("A%d", r), p.Name)
		if p.SKU != nil {
			f.SetCellValue(priceListSheet, fmt.Sprintf("B%d", r), *p.SKU)
		}
		f.SetCellValue(priceListSheet, fmt.Sprintf("C%d", r), row.Category)
		f.SetCellValue(priceListSheet, fmt.Sprintf("D%d", r), p.ExwPriceYuan)
		f.SetCellValue(priceListSheet, fmt.Sprintf("E%d", r), p.UnitsPerCarton)
		if p.PricedAt == nil {
			continue
		}
		f.SetCellValue(priceListSheet, fmt.Sprintf("F%d", r), p.TotalLandedCost)
		f.SetCellValue(priceListSheet, fmt.Sprintf("G%d", r), p.StoreLandingPrice)
		f.SetCellValue(priceListSheet, fmt.Sprintf("H%d", r), p.SuggestedMrp)
		f.SetCellValue(priceListSheet, fmt.Sprintf("I%d", r), p.StoreMarginPercent)
		f.SetCellValue(priceListSheet, fmt.Sprintf("J%d", r), p.StoreMarginRs)
		if p.MarginWarning {
			f.SetCellValue(priceListSheet, fmt.Sprintf("K%d", r), "YES")
			f.SetCellStyle(priceListSheet, fmt.Sprintf("I%d", r), fmt.Sprintf("K%d", r), warningStyle)
		}
		f.SetCellValue(priceListSheet, fmt.Sprintf("L%d", r), p.PricedAt.UTC().Format("2006-01-02 15:04"))
	}

	f.SetColWidth(priceListSheet, "A", "A", 36)
	f.SetColWidth(priceListSheet, "B", "C", 18)
	f.SetColWidth(priceListSheet, "D", "K", 14)
	f.SetColWidth(priceListSheet, "L", "L", 18)
	f.SetPanes(priceListSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return f, nil
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatMRP(v float64) string {
	return decimal.NewFromFloat(v).String()
}

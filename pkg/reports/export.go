package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetAvailable = "Available Products"
	sheetSales     = "Sales"
	sheetInventory = "Inventory"
)

// ExportXLSX writes the loaded report for kind as an Excel workbook.
// The first sheet is the report, the second the available products.
func (v *Viewer) ExportXLSX(w io.Writer, kind Kind) error {
	v.mu.Lock()
	data := v.data.clone()
	v.mu.Unlock()

	if _, ok := data.Loaded[kind]; !ok {
		return fmt.Errorf("no %s report loaded to export", kind)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	var (
		sheet   string
		headers []string
		rows    [][]interface{}
	)
	switch kind {
	case KindInventory:
		sheet = sheetInventory
		headers = []string{"ID", "Product", "Previous Stock", "Added", "New Stock", "Restocked By", "Restocked At"}
		for _, r := range data.Restocks {
			rows = append(rows, []interface{}{int(r.ID), r.ProductName, int(r.PreviousStock), int(r.AddedStock), int(r.NewStock), r.RestockedBy, r.RestockedAt})
		}
	default:
		sheet = sheetSales + " " + data.SalesDate
		headers = []string{"Product ID", "Product", "Quantity Sold", "Revenue"}
		for _, s := range data.Sold {
			rows = append(rows, []interface{}{int(s.ProductID), s.ProductName, int(s.TotalQuantitySold), s.TotalRevenue.InexactFloat64()})
		}
	}

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := writeTable(f, sheet, headerStyle, headers, rows); err != nil {
		return err
	}

	var products [][]interface{}
	for _, p := range data.Available {
		products = append(products, []interface{}{p.ID, p.Name, p.Price.InexactFloat64(), p.Stock})
	}
	if _, err := f.NewSheet(sheetAvailable); err != nil {
		return err
	}
	if err := writeTable(f, sheetAvailable, headerStyle, []string{"ID", "Product", "Price", "Stock"}, products); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeTable(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// Package export renders extraction results as downloadable workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"chatpdf/internal/pdf"
)

const sheet = "Extraction"

// ReportXLSX returns an XLSX workbook (as bytes) describing how each page
// of a document was extracted: method used, quality score, and size.
func ReportXLSX(filename string, res pdf.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{"Page", "Method", "Quality Score", "Characters"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellValue(sheet, "E1", "Source"); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellValue(sheet, "F1", filename); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for row, page := range res.Pages {
		values := []any{page.Number, page.Method, page.Score, len(page.Text)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write page row %d: %w", page.Number, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

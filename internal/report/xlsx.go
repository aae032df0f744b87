package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Relatório"

// XLSX renders the report as a single-sheet workbook with the same layout as
// the CSV: header, data rows, blank row, totals block.
func (r Report) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", xlsxSheet)

	writeRow := func(rowNum int, values []string) {
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			_ = f.SetCellValue(xlsxSheet, cell, v)
		}
	}

	writeRow(1, Header)
	rowNum := 2
	for _, row := range r.Rows {
		writeRow(rowNum, []string{row.DueDate, row.Description, row.Category, row.TotalValue, row.Status})
		rowNum++
	}
	rowNum++ // blank separator row
	for _, record := range r.totalsRows() {
		writeRow(rowNum, record)
		rowNum++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

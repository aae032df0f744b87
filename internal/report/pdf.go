package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders the report as a minimal A4 document: title, expense table and
// the totals block underneath.
func (r Report) PDF() ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	// gofpdf's core fonts are cp1252; translate the accented labels.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.Cell(0, 8, tr("Relatório de Despesas"))
	pdf.Ln(10)

	widths := []float64{28, 62, 30, 35, 25}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range Header {
		pdf.CellFormat(widths[i], 6, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range r.Rows {
		cells := []string{row.DueDate, row.Description, row.Category, row.TotalValue, row.Status}
		for i, c := range cells {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, tr("TOTAIS"))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	totals := []struct{ label, value string }{
		{"Total Geral", r.Totals.Total.FormatBRL()},
		{"Total Pago", r.Totals.PaidTotal.FormatBRL()},
		{"Total Pendente", r.Totals.PendingTotal.FormatBRL()},
		{"Quantidade de Despesas", fmt.Sprintf("%d", r.Totals.Count)},
	}
	for _, t := range totals {
		pdf.Cell(60, 6, tr(t.label))
		pdf.Cell(0, 6, tr(t.value))
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

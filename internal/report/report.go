// Package report renders filtered expense collections into the export
// formats offered by the reports view: CSV, XLSX and PDF, plus the row form
// the Sheets sync worker appends to the shared spreadsheet.
package report

import (
	"strconv"

	"contas/internal/core"
	"contas/internal/services"
)

// Header is the column header row of every export, in order.
var Header = []string{"Data Vencimento", "Descrição", "Categoria", "Valor Total", "Status"}

// Row is one formatted expense line of a report.
type Row struct {
	DueDate     string
	Description string
	Category    string
	TotalValue  string
	Status      string
}

// Report is a fully formatted export: one row per filtered expense plus the
// totals block. Formatting happens once here so the CSV, XLSX, PDF and
// Sheets renderings cannot disagree.
type Report struct {
	Rows   []Row
	Totals services.Totals
}

// Build formats the filtered expenses into a report, deriving each status as
// of the reference date. An empty collection yields a report with no rows and
// zero totals; it is not an error.
func Build(expenses []core.Expense, today core.CalendarDate) Report {
	r := Report{
		Rows:   make([]Row, 0, len(expenses)),
		Totals: services.Summarize(expenses),
	}
	for _, e := range expenses {
		r.Rows = append(r.Rows, Row{
			DueDate:     e.DueDate.Display(),
			Description: e.Description,
			Category:    e.Category.Label(),
			TotalValue:  e.TotalValue.FormatBRL(),
			Status:      services.ResolveStatus(e, today).Label(),
		})
	}
	return r
}

// totalsRows renders the trailing totals block shared by all formats.
func (r Report) totalsRows() [][]string {
	return [][]string{
		{"TOTAIS", "", "", "", ""},
		{"Total Geral", "", "", r.Totals.Total.FormatBRL(), ""},
		{"Total Pago", "", "", r.Totals.PaidTotal.FormatBRL(), ""},
		{"Total Pendente", "", "", r.Totals.PendingTotal.FormatBRL(), ""},
		{"Quantidade de Despesas", "", "", strconv.Itoa(r.Totals.Count), ""},
	}
}

// SheetRows flattens the report into plain string rows (header, data, blank
// separator, totals) for appending to a spreadsheet.
func (r Report) SheetRows() [][]string {
	rows := make([][]string, 0, len(r.Rows)+7)
	rows = append(rows, Header)
	for _, row := range r.Rows {
		rows = append(rows, []string{row.DueDate, row.Description, row.Category, row.TotalValue, row.Status})
	}
	rows = append(rows, []string{"", "", "", "", ""})
	rows = append(rows, r.totalsRows()...)
	return rows
}

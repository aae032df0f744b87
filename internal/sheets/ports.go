// Package sheets defines the outbound port for publishing rendered reports
// to a spreadsheet. The google subpackage implements it against the Google
// Sheets API.
package sheets

import "context"

// ReportAppender pushes the rows of a rendered report (header, data and
// totals, as the CSV export lays them out) to a spreadsheet tab.
type ReportAppender interface {
	AppendReportRows(ctx context.Context, title string, rows [][]string) error
}

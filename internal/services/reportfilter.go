package services

import (
	"contas/internal/core"
)

// ReportQuery holds the filter values selected in the reports view. Zero
// values mean "no filter"; CategoryAll behaves like an absent category.
type ReportQuery struct {
	Start    core.CalendarDate
	End      core.CalendarDate
	Category core.Category
}

// CategoryAll disables the category predicate.
const CategoryAll core.Category = "all"

// Filter applies the query's predicates to the collection, AND-composed.
// Both date bounds are inclusive: because due dates are calendar dates, the
// end bound naturally covers the whole day without any end-of-day fixup.
// Input order is preserved.
func Filter(expenses []core.Expense, q ReportQuery) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !q.Start.IsZero() && e.DueDate.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && e.DueDate.After(q.End) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && e.Category != q.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}

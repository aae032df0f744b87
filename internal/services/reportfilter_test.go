package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/core"
)

func catExpense(id int64, due core.CalendarDate, cat core.Category) core.Expense {
	e := expense(id, due, core.StoredPending)
	e.Category = cat
	return e
}

func ids(expenses []core.Expense) []int64 {
	out := make([]int64, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, e.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	expenses := []core.Expense{
		catExpense(1, core.NewCalendarDate(2026, 3, 1), core.CategoryLuz),
		catExpense(2, core.NewCalendarDate(2026, 3, 10), core.CategoryAgua),
		catExpense(3, core.NewCalendarDate(2026, 3, 20), core.CategoryLuz),
		catExpense(4, core.NewCalendarDate(2026, 3, 31), core.CategoryGas),
	}

	tests := []struct {
		name string
		q    ReportQuery
		want []int64
	}{
		{"no filters keeps everything", ReportQuery{}, []int64{1, 2, 3, 4}},
		{
			"start bound is inclusive",
			ReportQuery{Start: core.NewCalendarDate(2026, 3, 10)},
			[]int64{2, 3, 4},
		},
		{
			"end bound is inclusive",
			ReportQuery{End: core.NewCalendarDate(2026, 3, 20)},
			[]int64{1, 2, 3},
		},
		{
			"start and end compose",
			ReportQuery{Start: core.NewCalendarDate(2026, 3, 2), End: core.NewCalendarDate(2026, 3, 30)},
			[]int64{2, 3},
		},
		{
			"category filter",
			ReportQuery{Category: core.CategoryLuz},
			[]int64{1, 3},
		},
		{
			"category all is no filter",
			ReportQuery{Category: CategoryAll},
			[]int64{1, 2, 3, 4},
		},
		{
			"all predicates AND together",
			ReportQuery{
				Start:    core.NewCalendarDate(2026, 3, 2),
				End:      core.NewCalendarDate(2026, 3, 30),
				Category: core.CategoryLuz,
			},
			[]int64{3},
		},
		{
			"window matching nothing",
			ReportQuery{Start: core.NewCalendarDate(2026, 4, 1)},
			[]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(expenses, tt.q)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	expenses := []core.Expense{
		catExpense(3, core.NewCalendarDate(2026, 3, 20), core.CategoryLuz),
		catExpense(1, core.NewCalendarDate(2026, 3, 1), core.CategoryLuz),
		catExpense(2, core.NewCalendarDate(2026, 3, 10), core.CategoryLuz),
	}

	got := Filter(expenses, ReportQuery{Category: core.CategoryLuz})

	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 1, 2}, ids(got))
	// The input slice itself is untouched.
	assert.Equal(t, int64(3), expenses[0].ID)
}

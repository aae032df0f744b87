package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contas/internal/core"
)

var today = core.NewCalendarDate(2026, 3, 15)

func expense(id int64, due core.CalendarDate, status core.StoredStatus) core.Expense {
	return core.Expense{
		ID:          id,
		Description: "Despesa",
		TotalValue:  core.Money{Cents: 10000},
		DueDate:     due,
		Category:    core.CategoryLuz,
		Status:      status,
	}
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name   string
		due    core.CalendarDate
		status core.StoredStatus
		want   core.EffectiveStatus
	}{
		{"paid stays paid", core.NewCalendarDate(2026, 3, 20), core.StoredPaid, core.StatusPaid},
		{"paid past due is still paid", core.NewCalendarDate(2026, 3, 1), core.StoredPaid, core.StatusPaid},
		{"pending before due date", core.NewCalendarDate(2026, 3, 20), core.StoredPending, core.StatusPending},
		{"pending due today is not overdue", today, core.StoredPending, core.StatusPending},
		{"pending past due is overdue", core.NewCalendarDate(2026, 3, 14), core.StoredPending, core.StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(expense(1, tt.due, tt.status), today)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsOpen(t *testing.T) {
	assert.False(t, IsOpen(expense(1, today, core.StoredPaid), today))
	assert.True(t, IsOpen(expense(2, today, core.StoredPending), today))
	assert.True(t, IsOpen(expense(3, core.NewCalendarDate(2026, 3, 1), core.StoredPending), today))
}

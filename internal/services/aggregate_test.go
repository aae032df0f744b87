package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/core"
)

func TestPartition(t *testing.T) {
	expenses := []core.Expense{
		expense(1, core.NewCalendarDate(2026, 3, 20), core.StoredPending),
		expense(2, core.NewCalendarDate(2026, 3, 1), core.StoredPaid),
		expense(3, core.NewCalendarDate(2026, 3, 10), core.StoredPending), // overdue
		expense(4, core.NewCalendarDate(2026, 3, 25), core.StoredPaid),
		expense(5, core.NewCalendarDate(2026, 3, 16), core.StoredPending),
	}

	p := Partition(expenses, today)

	// Open ascending by due date: overdue first, then soonest due.
	require.Len(t, p.Open, 3)
	assert.Equal(t, int64(3), p.Open[0].ID)
	assert.Equal(t, int64(5), p.Open[1].ID)
	assert.Equal(t, int64(1), p.Open[2].ID)

	// Settled descending by due date.
	require.Len(t, p.Settled, 2)
	assert.Equal(t, int64(4), p.Settled[0].ID)
	assert.Equal(t, int64(2), p.Settled[1].ID)
}

func TestPartition_EqualDueDatesKeepInputOrder(t *testing.T) {
	due := core.NewCalendarDate(2026, 3, 20)
	expenses := []core.Expense{
		expense(1, due, core.StoredPending),
		expense(2, due, core.StoredPending),
		expense(3, due, core.StoredPending),
	}

	p := Partition(expenses, today)

	require.Len(t, p.Open, 3)
	assert.Equal(t, int64(1), p.Open[0].ID)
	assert.Equal(t, int64(2), p.Open[1].ID)
	assert.Equal(t, int64(3), p.Open[2].ID)
}

func TestPartition_Empty(t *testing.T) {
	p := Partition(nil, today)
	assert.Empty(t, p.Open)
	assert.Empty(t, p.Settled)
}

func TestSummarize(t *testing.T) {
	e1 := expense(1, today, core.StoredPaid)
	e1.TotalValue = core.Money{Cents: 15000}
	e2 := expense(2, today, core.StoredPending)
	e2.TotalValue = core.Money{Cents: 8050}
	// Overdue but unpaid: counts as pending money regardless of dueness.
	e3 := expense(3, core.NewCalendarDate(2026, 3, 1), core.StoredPending)
	e3.TotalValue = core.Money{Cents: 1950}

	totals := Summarize([]core.Expense{e1, e2, e3})

	assert.Equal(t, int64(25000), totals.Total.Cents)
	assert.Equal(t, int64(15000), totals.PaidTotal.Cents)
	assert.Equal(t, int64(10000), totals.PendingTotal.Cents)
	assert.Equal(t, 3, totals.Count)
	assert.Equal(t, 1, totals.PaidCount)
}

func TestSummarize_Empty(t *testing.T) {
	totals := Summarize(nil)
	assert.Zero(t, totals.Total.Cents)
	assert.Zero(t, totals.PaidTotal.Cents)
	assert.Zero(t, totals.PendingTotal.Cents)
	assert.Zero(t, totals.Count)
}

func TestMemberPaymentStats(t *testing.T) {
	paidAt, _ := core.ParseInstant("2026-03-10T12:00:00Z")
	payments := []core.Payment{
		{ID: 1, ExpenseID: 10, MemberID: 1, AmountPaid: core.Money{Cents: 5000}, PaidAt: paidAt},
		{ID: 2, ExpenseID: 11, MemberID: 2, AmountPaid: core.Money{Cents: 3000}, PaidAt: paidAt},
		{ID: 3, ExpenseID: 12, MemberID: 1, AmountPaid: core.Money{Cents: 2500}, PaidAt: paidAt},
	}

	stats := MemberPaymentStats(payments)

	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[1].PaymentCount)
	assert.Equal(t, int64(7500), stats[1].TotalPaid.Cents)
	assert.Equal(t, 1, stats[2].PaymentCount)
	assert.Equal(t, int64(3000), stats[2].TotalPaid.Cents)

	// Absent member reads as zero values.
	assert.Zero(t, stats[99].PaymentCount)
	assert.Zero(t, stats[99].TotalPaid.Cents)
}

func TestPerMemberShare(t *testing.T) {
	e := expense(1, today, core.StoredPending)
	e.TotalValue = core.Money{Cents: 10001}

	assert.Equal(t, int64(5001), PerMemberShare(e, 2).Cents)
	assert.Equal(t, int64(3334), PerMemberShare(e, 3).Cents)
	assert.Zero(t, PerMemberShare(e, 0).Cents)
}

package services

import (
	"sort"

	"contas/internal/core"
)

// Partitioned holds the two tabs of the expense view: open expenses sorted by
// urgency and settled ones sorted most recent first.
type Partitioned struct {
	Open    []core.Expense
	Settled []core.Expense
}

// Partition classifies every expense through ResolveStatus and splits the
// collection into open (pendente or vencida) and settled (pago) buckets.
// Open sorts ascending by due date so the soonest-due surfaces first; settled
// sorts descending. Expenses with equal due dates keep their input order.
func Partition(expenses []core.Expense, today core.CalendarDate) Partitioned {
	var p Partitioned
	for _, e := range expenses {
		if IsOpen(e, today) {
			p.Open = append(p.Open, e)
		} else {
			p.Settled = append(p.Settled, e)
		}
	}
	sort.SliceStable(p.Open, func(i, j int) bool {
		return p.Open[i].DueDate.Before(p.Open[j].DueDate)
	})
	sort.SliceStable(p.Settled, func(i, j int) bool {
		return p.Settled[i].DueDate.After(p.Settled[j].DueDate)
	})
	return p
}

// Totals summarizes a collection of expenses. Paid amounts follow the stored
// status flag, not the derived one: an overdue expense is still pending money.
type Totals struct {
	Total        core.Money
	PaidTotal    core.Money
	PendingTotal core.Money
	Count        int
	PaidCount    int
}

// Summarize folds the collection into totals. PendingTotal is always
// Total - PaidTotal, so the three amounts stay consistent by construction.
func Summarize(expenses []core.Expense) Totals {
	t := Totals{Count: len(expenses)}
	for _, e := range expenses {
		t.Total = t.Total.Add(e.TotalValue)
		if e.Status == core.StoredPaid {
			t.PaidTotal = t.PaidTotal.Add(e.TotalValue)
			t.PaidCount++
		}
	}
	t.PendingTotal = t.Total.Sub(t.PaidTotal)
	return t
}

// MemberStats is the per-member payment breakdown shown in the payments view.
type MemberStats struct {
	PaymentCount int
	TotalPaid    core.Money
}

// MemberPaymentStats groups payments by member, accumulating count and total.
func MemberPaymentStats(payments []core.Payment) map[int64]MemberStats {
	stats := make(map[int64]MemberStats, len(payments))
	for _, p := range payments {
		s := stats[p.MemberID]
		s.PaymentCount++
		s.TotalPaid = s.TotalPaid.Add(p.AmountPaid)
		stats[p.MemberID] = s
	}
	return stats
}

// PerMemberShare is the render-time split of an expense across the current
// member count. The share is recomputed against the live roster, so it moves
// when members join or leave.
func PerMemberShare(e core.Expense, memberCount int) core.Money {
	return e.TotalValue.Split(memberCount)
}

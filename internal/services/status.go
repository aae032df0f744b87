// Package services implements the derivation layer: status resolution,
// partitioning, aggregation and report filtering over república snapshots.
//
// Every function here is a pure computation over data already in memory. The
// three consumer views (expenses, payments, reports) all derive status
// through this one package, so the rules cannot drift between call sites the
// way they did when each view carried its own copy.
package services

import (
	"contas/internal/core"
)

// ResolveStatus derives the effective lifecycle status of an expense as of a
// reference date. Precedence, first match wins:
//
//  1. stored status is paid            -> pago
//  2. due date strictly before today   -> vencida
//  3. otherwise                        -> pendente
//
// Payment dominates: a paid expense with a past due date is pago, never
// vencida. Both sides are compared as calendar dates only.
func ResolveStatus(e core.Expense, today core.CalendarDate) core.EffectiveStatus {
	if e.Status == core.StoredPaid {
		return core.StatusPaid
	}
	if e.DueDate.Before(today) {
		return core.StatusOverdue
	}
	return core.StatusPending
}

// IsOpen reports whether the expense still needs attention (pending or
// overdue) as of the reference date.
func IsOpen(e core.Expense, today core.CalendarDate) bool {
	return ResolveStatus(e, today) != core.StatusPaid
}

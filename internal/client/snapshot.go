package client

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"contas/internal/core"
)

// paymentFetchLimit caps concurrent per-expense payment requests so a
// república with many expenses does not flood the upstream API.
const paymentFetchLimit = 8

// FetchSnapshot loads the full state of a república: expenses, members and
// every payment recorded against each expense. Expenses and members are
// fetched in parallel, then payments for all expenses with the concurrency
// capped. Any failed request fails the whole snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, republicID int64) (core.Snapshot, error) {
	snap := core.Snapshot{RepublicID: republicID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expenses, err := c.ListExpenses(gctx, republicID)
		if err != nil {
			return err
		}
		snap.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		members, err := c.ListMembers(gctx, republicID)
		if err != nil {
			return err
		}
		snap.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	var mu sync.Mutex
	payments := make([]core.Payment, 0, len(snap.Expenses))

	pg, pctx := errgroup.WithContext(ctx)
	pg.SetLimit(paymentFetchLimit)
	for _, expense := range snap.Expenses {
		pg.Go(func() error {
			ps, err := c.ListPayments(pctx, republicID, expense.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			payments = append(payments, ps...)
			mu.Unlock()
			return nil
		})
	}
	if err := pg.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	// Concurrent appends land in arbitrary order; keep the snapshot stable.
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	snap.Payments = payments

	c.logger.InfoContext(ctx, "snapshot fetched",
		"republic_id", republicID,
		"expenses", len(snap.Expenses),
		"members", len(snap.Members),
		"payments", len(snap.Payments))
	return snap, nil
}

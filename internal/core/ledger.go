package core

// RevisionDelta is the balance correction for revising a daily entry:
// the new net effect minus the effect the stored entry already applied.
// Algebraically identical to reverting the old entry and reapplying the
// new one.
func RevisionDelta(old, revised DailyEntry) Money {
	return revised.NetEffect().Sub(old.NetEffect())
}

// RecomputeBalance derives the balance from full event history. The
// materialized User.ActiveBalance must always match this sum; the
// function exists so audits can detect drift without trusting the
// incremental bookkeeping.
func RecomputeBalance(deposits []Deposit, withdrawals []Withdrawal, entries []DailyEntry) Money {
	var total Money
	for _, d := range deposits {
		total = total.Add(d.Amount)
	}
	for _, w := range withdrawals {
		total = total.Sub(w.Amount)
	}
	for _, e := range entries {
		total = total.Add(e.NetEffect())
	}
	return total
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradejournal/internal/core"
)

// DashboardStats aggregates the user's full history with SUM queries.
// ActiveBalance is read from the user row, not recomputed; absent rows
// sum to zero.
func (r *Repository) DashboardStats(ctx context.Context, userID int64) (core.DashboardStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.active_balance,
		       COALESCE((SELECT SUM(amount_cents) FROM deposits WHERE user_id = u.id), 0),
		       COALESCE((SELECT SUM(amount_cents) FROM withdrawals WHERE user_id = u.id), 0),
		       COALESCE((SELECT SUM(profit_cents) FROM daily_entries WHERE user_id = u.id), 0),
		       COALESCE((SELECT SUM(loss_cents) FROM daily_entries WHERE user_id = u.id), 0)
		FROM users u WHERE u.id = ?`, userID)

	var s core.DashboardStats
	err := row.Scan(&s.ActiveBalance.Cents, &s.TotalDeposited.Cents, &s.TotalWithdrawn.Cents,
		&s.TotalProfit.Cents, &s.TotalLoss.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DashboardStats{}, core.ErrNotFound
	}
	if err != nil {
		return core.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	s.TotalPnl = s.TotalProfit.Sub(s.TotalLoss)
	return s, nil
}

// MonthlyEntries returns the user's entries dated within the given
// calendar month, ordered by date then insertion order.
func (r *Repository) MonthlyEntries(ctx context.Context, userID int64, year, month int) ([]core.DailyEntry, error) {
	from := core.NewDate(year, month, 1)
	to := core.Date{Time: from.AddDate(0, 1, 0)}

	rows, err := r.db.QueryContext(ctx,
		entrySelect+` WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date, id`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("monthly entries: %w", err)
	}
	defer rows.Close()

	var entries []core.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListDeposits returns all of a user's deposits in insertion order.
func (r *Repository) ListDeposits(ctx context.Context, userID int64) ([]core.Deposit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, date, created_at FROM deposits WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []core.Deposit
	for rows.Next() {
		var d core.Deposit
		var date string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Amount.Cents, &date, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		if d.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored deposit date %q: %w", date, err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// ListWithdrawals returns all of a user's withdrawals in insertion order.
func (r *Repository) ListWithdrawals(ctx context.Context, userID int64) ([]core.Withdrawal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, date, created_at FROM withdrawals WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []core.Withdrawal
	for rows.Next() {
		var w core.Withdrawal
		var date string
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount.Cents, &date, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		if w.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored withdrawal date %q: %w", date, err)
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

// ListDailyEntries returns all of a user's entries in insertion order.
func (r *Repository) ListDailyEntries(ctx context.Context, userID int64) ([]core.DailyEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		entrySelect+` WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list daily entries: %w", err)
	}
	defer rows.Close()

	var entries []core.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

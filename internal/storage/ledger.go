package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradejournal/internal/core"
)

// CreateDeposit inserts a deposit row and credits the user's balance by
// its amount, atomically. A missing user is core.ErrNotFound.
func (r *Repository) CreateDeposit(ctx context.Context, userID int64, amount core.Money, date core.Date) (core.Deposit, error) {
	dep := core.Deposit{UserID: userID, Amount: amount, Date: date, CreatedAt: time.Now().UTC()}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := applyBalanceDelta(ctx, tx, userID, amount.Cents); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO deposits (user_id, amount_cents, date, created_at) VALUES (?, ?, ?, ?)`,
			userID, amount.Cents, date.String(), dep.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert deposit: %w", err)
		}
		dep.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("deposit id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Deposit{}, err
	}

	slog.InfoContext(ctx, "Deposit recorded",
		"user_id", userID, "deposit_id", dep.ID, "amount_cents", amount.Cents, "date", date.String())
	return dep, nil
}

// CreateWithdrawal inserts a withdrawal row and debits the user's
// balance, atomically. The balance is allowed to go negative.
func (r *Repository) CreateWithdrawal(ctx context.Context, userID int64, amount core.Money, date core.Date) (core.Withdrawal, error) {
	wd := core.Withdrawal{UserID: userID, Amount: amount, Date: date, CreatedAt: time.Now().UTC()}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := applyBalanceDelta(ctx, tx, userID, -amount.Cents); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO withdrawals (user_id, amount_cents, date, created_at) VALUES (?, ?, ?, ?)`,
			userID, amount.Cents, date.String(), wd.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}
		wd.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("withdrawal id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Withdrawal{}, err
	}

	slog.InfoContext(ctx, "Withdrawal recorded",
		"user_id", userID, "withdrawal_id", wd.ID, "amount_cents", amount.Cents, "date", date.String())
	return wd, nil
}

// CreateDailyEntry inserts an entry row and applies its net effect
// (profit - loss) to the balance, atomically.
func (r *Repository) CreateDailyEntry(ctx context.Context, entry core.DailyEntry) (core.DailyEntry, error) {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := applyBalanceDelta(ctx, tx, entry.UserID, entry.NetEffect().Cents); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO daily_entries (user_id, date, profit_cents, loss_cents, reason_profit, reason_loss, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.UserID, entry.Date.String(), entry.Profit.Cents, entry.Loss.Cents,
			entry.ReasonProfit, entry.ReasonLoss, entry.CreatedAt, entry.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert daily entry: %w", err)
		}
		entry.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("daily entry id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.DailyEntry{}, err
	}

	slog.InfoContext(ctx, "Daily entry recorded",
		"user_id", entry.UserID, "entry_id", entry.ID, "date", entry.Date.String(),
		"profit_cents", entry.Profit.Cents, "loss_cents", entry.Loss.Cents)
	return entry, nil
}

// UpdateDailyEntry revises an entry's profit, loss and reasons, and
// corrects the balance by the difference between the new and old net
// effects, reverting the stored entry and reapplying the revision as
// one arithmetic step in one transaction. An entry that does not exist
// or belongs to a different user is core.ErrNotFound; the caller cannot
// distinguish the two cases.
func (r *Repository) UpdateDailyEntry(ctx context.Context, entryID, userID int64, profit, loss core.Money, reasonProfit, reasonLoss string) (core.DailyEntry, error) {
	var updated core.DailyEntry

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := scanEntry(tx.QueryRowContext(ctx,
			entrySelect+` WHERE id = ? AND user_id = ?`, entryID, userID))
		if err != nil {
			return err
		}

		updated = old
		updated.Profit = profit
		updated.Loss = loss
		updated.ReasonProfit = reasonProfit
		updated.ReasonLoss = reasonLoss
		updated.UpdatedAt = time.Now().UTC()

		if err := applyBalanceDelta(ctx, tx, userID, core.RevisionDelta(old, updated).Cents); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE daily_entries
			 SET profit_cents = ?, loss_cents = ?, reason_profit = ?, reason_loss = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`,
			profit.Cents, loss.Cents, reasonProfit, reasonLoss, updated.UpdatedAt, entryID, userID)
		if err != nil {
			return fmt.Errorf("update daily entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.DailyEntry{}, err
	}

	slog.InfoContext(ctx, "Daily entry revised",
		"user_id", userID, "entry_id", entryID,
		"profit_cents", profit.Cents, "loss_cents", loss.Cents)
	return updated, nil
}

// ResetUser deletes every deposit, withdrawal and daily entry owned by
// the user and zeroes the balance, as a single transaction. A partial
// reset is never observable.
func (r *Repository) ResetUser(ctx context.Context, userID int64) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"deposits", "withdrawals", "daily_entries"} {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET active_balance = 0 WHERE id = ?`, userID)
		if err != nil {
			return fmt.Errorf("reset balance: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reset balance: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "User data reset", "user_id", userID)
	return nil
}

const entrySelect = `SELECT id, user_id, date, profit_cents, loss_cents, reason_profit, reason_loss, created_at, updated_at FROM daily_entries`

// GetDailyEntry fetches one entry by id, scoped to its owner.
func (r *Repository) GetDailyEntry(ctx context.Context, entryID, userID int64) (core.DailyEntry, error) {
	return scanEntry(r.db.QueryRowContext(ctx,
		entrySelect+` WHERE id = ? AND user_id = ?`, entryID, userID))
}

// GetDailyEntryByDate fetches the user's entry for a calendar date.
// Duplicate dates are possible; the earliest inserted row wins.
func (r *Repository) GetDailyEntryByDate(ctx context.Context, userID int64, date core.Date) (core.DailyEntry, error) {
	return scanEntry(r.db.QueryRowContext(ctx,
		entrySelect+` WHERE user_id = ? AND date = ? ORDER BY id LIMIT 1`, userID, date.String()))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.DailyEntry, error) {
	var e core.DailyEntry
	var date string
	err := row.Scan(&e.ID, &e.UserID, &date, &e.Profit.Cents, &e.Loss.Cents,
		&e.ReasonProfit, &e.ReasonLoss, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.DailyEntry{}, fmt.Errorf("scan daily entry: %w", err)
	}
	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.DailyEntry{}, fmt.Errorf("stored entry date %q: %w", date, err)
	}
	return e, nil
}

package services

import (
	"context"

	"tradejournal/internal/core"
	applog "tradejournal/internal/log"
	"tradejournal/internal/storage"
)

// LedgerService fronts the financial operations. Validation happens
// here; atomicity lives in the storage layer, where each mutation and
// its balance delta commit as one transaction.
type LedgerService struct {
	repo   *storage.Repository
	logger *applog.Logger
}

func NewLedgerService(repo *storage.Repository, logger *applog.Logger) *LedgerService {
	return &LedgerService{
		repo:   repo,
		logger: logger.WithComponent(applog.ComponentLedger),
	}
}

// RecordDeposit credits the user's balance with a new deposit.
func (s *LedgerService) RecordDeposit(ctx context.Context, userID int64, amount core.Money, date core.Date) (core.Deposit, error) {
	dep := core.Deposit{UserID: userID, Amount: amount, Date: date}
	if err := dep.Validate(); err != nil {
		return core.Deposit{}, err
	}
	return s.repo.CreateDeposit(ctx, userID, amount, date)
}

// RecordWithdrawal debits the user's balance. No floor: the resulting
// balance may be negative.
func (s *LedgerService) RecordWithdrawal(ctx context.Context, userID int64, amount core.Money, date core.Date) (core.Withdrawal, error) {
	wd := core.Withdrawal{UserID: userID, Amount: amount, Date: date}
	if err := wd.Validate(); err != nil {
		return core.Withdrawal{}, err
	}
	return s.repo.CreateWithdrawal(ctx, userID, amount, date)
}

// RecordEntry stores a new daily entry and applies its net effect.
func (s *LedgerService) RecordEntry(ctx context.Context, entry core.DailyEntry) (core.DailyEntry, error) {
	if err := entry.Validate(); err != nil {
		return core.DailyEntry{}, err
	}
	return s.repo.CreateDailyEntry(ctx, entry)
}

// ReviseEntry updates an existing entry's profit, loss and reasons and
// reconciles the balance. An entry owned by another user is
// core.ErrNotFound, indistinguishable from a missing one.
func (s *LedgerService) ReviseEntry(ctx context.Context, entryID, userID int64, profit, loss core.Money, reasonProfit, reasonLoss string) (core.DailyEntry, error) {
	if profit.Cents < 0 || loss.Cents < 0 {
		return core.DailyEntry{}, core.ErrInvalidAmount
	}
	return s.repo.UpdateDailyEntry(ctx, entryID, userID, profit, loss, reasonProfit, reasonLoss)
}

// Reset wipes the user's entire event history and zeroes the balance.
func (s *LedgerService) Reset(ctx context.Context, userID int64) error {
	s.logger.WarnContext(ctx, "Resetting all user data",
		applog.FieldOperation, applog.OpReset, applog.FieldUserID, userID)
	return s.repo.ResetUser(ctx, userID)
}

// Dashboard returns the aggregate view of the user's history.
func (s *LedgerService) Dashboard(ctx context.Context, userID int64) (core.DashboardStats, error) {
	return s.repo.DashboardStats(ctx, userID)
}

// MonthlyEntries lists the user's entries for one calendar month.
func (s *LedgerService) MonthlyEntries(ctx context.Context, userID int64, year, month int) ([]core.DailyEntry, error) {
	return s.repo.MonthlyEntries(ctx, userID, year, month)
}

// EntryByDate fetches the user's entry for a date, used to prefill the
// daily-entry form.
func (s *LedgerService) EntryByDate(ctx context.Context, userID int64, date core.Date) (core.DailyEntry, error) {
	return s.repo.GetDailyEntryByDate(ctx, userID, date)
}

// VerifyBalance recomputes the balance from stored history and reports
// it next to the materialized value. The two must always match; the
// audit exists to catch drift, not to heal it silently.
func (s *LedgerService) VerifyBalance(ctx context.Context, userID int64) (materialized, recomputed core.Money, err error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return core.Money{}, core.Money{}, err
	}
	deposits, err := s.repo.ListDeposits(ctx, userID)
	if err != nil {
		return core.Money{}, core.Money{}, err
	}
	withdrawals, err := s.repo.ListWithdrawals(ctx, userID)
	if err != nil {
		return core.Money{}, core.Money{}, err
	}
	entries, err := s.repo.ListDailyEntries(ctx, userID)
	if err != nil {
		return core.Money{}, core.Money{}, err
	}

	materialized = user.ActiveBalance
	recomputed = core.RecomputeBalance(deposits, withdrawals, entries)
	if materialized != recomputed {
		s.logger.ErrorContext(ctx, "Balance drift detected",
			applog.FieldUserID, userID,
			"materialized_cents", materialized.Cents,
			"recomputed_cents", recomputed.Cents)
	}
	return materialized, recomputed, nil
}

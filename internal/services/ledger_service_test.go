package services

import (
	"context"
	"testing"
	"time"

	"tradejournal/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture(t *testing.T) (*LedgerService, core.User) {
	t.Helper()
	repo := newTestRepo(t)
	accounts := NewAccountService(repo, testLogger(), time.Hour)
	ledger := NewLedgerService(repo, testLogger())

	user, err := accounts.Register(context.Background(), core.Registration{
		Email: "l@example.com", Username: "ledger", Password: "pw",
	})
	require.NoError(t, err)
	return ledger, user
}

func TestLedgerValidation(t *testing.T) {
	ctx := context.Background()
	ledger, user := newLedgerFixture(t)

	_, err := ledger.RecordDeposit(ctx, user.ID, core.Money{Cents: 0}, core.NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = ledger.RecordWithdrawal(ctx, user.ID, core.Money{Cents: -5}, core.NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = ledger.RecordDeposit(ctx, user.ID, core.Money{Cents: 100}, core.Date{})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = ledger.RecordEntry(ctx, core.DailyEntry{
		UserID: user.ID, Date: core.NewDate(2024, 1, 1), Profit: core.Money{Cents: -1},
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = ledger.ReviseEntry(ctx, 1, user.ID, core.Money{Cents: -1}, core.Money{}, "", "")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	// Nothing above should have touched the balance.
	stats, err := ledger.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ActiveBalance.Cents)
}

func TestLedgerFlowAndAudit(t *testing.T) {
	ctx := context.Background()
	ledger, user := newLedgerFixture(t)

	_, err := ledger.RecordDeposit(ctx, user.ID, core.Money{Cents: 50000}, core.NewDate(2024, 1, 1))
	require.NoError(t, err)

	entry, err := ledger.RecordEntry(ctx, core.DailyEntry{
		UserID: user.ID, Date: core.NewDate(2024, 1, 2),
		Profit: core.Money{Cents: 8000}, Loss: core.Money{Cents: 3000},
		ReasonProfit: "caught the breakout", ReasonLoss: "late exit on the reversal",
	})
	require.NoError(t, err)

	_, err = ledger.RecordWithdrawal(ctx, user.ID, core.Money{Cents: 10000}, core.NewDate(2024, 1, 3))
	require.NoError(t, err)

	_, err = ledger.ReviseEntry(ctx, entry.ID, user.ID,
		core.Money{Cents: 4000}, core.Money{Cents: 3000}, "took half at target", "")
	require.NoError(t, err)

	materialized, recomputed, err := ledger.VerifyBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(41000), materialized.Cents)
	assert.Equal(t, materialized, recomputed)

	entries, err := ledger.MonthlyEntries(ctx, user.ID, 2024, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "took half at target", entries[0].ReasonProfit)

	byDate, err := ledger.EntryByDate(ctx, user.ID, core.NewDate(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, entry.ID, byDate.ID)
}

func TestLedgerReset(t *testing.T) {
	ctx := context.Background()
	ledger, user := newLedgerFixture(t)

	_, err := ledger.RecordDeposit(ctx, user.ID, core.Money{Cents: 500}, core.NewDate(2024, 1, 1))
	require.NoError(t, err)

	require.NoError(t, ledger.Reset(ctx, user.ID))

	stats, err := ledger.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DashboardStats{}, stats)
}

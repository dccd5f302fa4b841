package arena_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/arena"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/store/memory"
)

func newTestEngine(t *testing.T, opts ...arena.Option) *arena.Engine {
	t.Helper()
	base := []arena.Option{
		arena.WithLogger(slog.New(slog.DiscardHandler)),
	}
	return arena.New(memory.New(), append(base, opts...)...)
}

func TestCreditAndBalance(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	acct := id.NewAccountID()

	// Unknown accounts report zero, not an error.
	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)

	txn, err := e.Credit(ctx, acct, 10, "grant-1", "signup bonus")
	require.NoError(t, err)
	require.Equal(t, int64(10), txn.Delta)
	require.Equal(t, credit.KindPurchase, txn.Kind)

	balance, err = e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}

func TestBalanceEqualsTransactionSum(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	acct := id.NewAccountID()

	_, err := e.Credit(ctx, acct, 10, "", "")
	require.NoError(t, err)
	_, err = e.Debit(ctx, acct, 3, "", "")
	require.NoError(t, err)
	_, err = e.Adjust(ctx, acct, 5, "", "goodwill")
	require.NoError(t, err)
	_, err = e.Debit(ctx, acct, 2, "", "")
	require.NoError(t, err)

	txns, err := e.Transactions(ctx, acct, credit.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txns, 4)

	var sum int64
	for _, txn := range txns {
		sum += txn.Delta
	}

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, sum, balance)
	require.Equal(t, int64(10), balance)
}

func TestDebitInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	acct := id.NewAccountID()

	_, err := e.Credit(ctx, acct, 5, "", "")
	require.NoError(t, err)

	// Overdraw fails and leaves the ledger untouched.
	_, err = e.Debit(ctx, acct, 6, "", "")
	require.ErrorIs(t, err, arena.ErrInsufficientCredits)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(5), balance)

	txns, err := e.Transactions(ctx, acct, credit.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	// Debiting an account with no ledger history also fails.
	_, err = e.Debit(ctx, id.NewAccountID(), 1, "", "")
	require.ErrorIs(t, err, arena.ErrInsufficientCredits)
}

func TestDuplicateReferenceRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	acct := id.NewAccountID()

	_, err := e.Credit(ctx, acct, 10, "evt_1", "")
	require.NoError(t, err)

	_, err = e.Credit(ctx, acct, 10, "evt_1", "")
	require.ErrorIs(t, err, arena.ErrDuplicateReference)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	// Same reference under a different kind is a distinct operation.
	_, err = e.Debit(ctx, acct, 1, "evt_1", "")
	require.NoError(t, err)

	// Empty references never collide.
	_, err = e.Credit(ctx, acct, 1, "", "")
	require.NoError(t, err)
	_, err = e.Credit(ctx, acct, 1, "", "")
	require.NoError(t, err)
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	acct := id.NewAccountID()

	for _, amount := range []int64{0, -1, -100} {
		_, err := e.Credit(ctx, acct, amount, "", "")
		require.ErrorIs(t, err, arena.ErrInvalidAmount)
		_, err = e.Debit(ctx, acct, amount, "", "")
		require.ErrorIs(t, err, arena.ErrInvalidAmount)
		_, err = e.Adjust(ctx, acct, amount, "", "")
		require.ErrorIs(t, err, arena.ErrInvalidAmount)
	}

	_, err := e.Credit(ctx, id.AccountID{}, 1, "", "")
	require.ErrorIs(t, err, arena.ErrAccountNotFound)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	acct := id.NewAccountID()

	_, err := e.Credit(ctx, acct, 10, "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Debit(ctx, acct, 1, "", fmt.Sprintf("worker %d", i))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, arena.ErrInsufficientCredits)
		}
	}
	require.Equal(t, 10, succeeded)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)
}

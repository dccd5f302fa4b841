package arena_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/arena"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/types"
)

// duplicateCounter counts absorbed redeliveries.
type duplicateCounter struct {
	count atomic.Int64
}

func (d *duplicateCounter) Name() string { return "duplicate-counter" }

func (d *duplicateCounter) OnDuplicateDelivery(_ context.Context, _ *payment.ConfirmedPurchase) error {
	d.count.Add(1)
	return nil
}

func seedPack(t *testing.T, e *arena.Engine) *pack.Pack {
	t.Helper()
	p := &pack.Pack{
		Slug:            "starter",
		Name:            "Starter Pack",
		Credits:         10,
		Price:           types.USD(499),
		ProviderPriceID: "price_starter",
	}
	require.NoError(t, e.CreatePack(context.Background(), p))
	return p
}

func TestHandleConfirmedPurchase(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	seedPack(t, e)
	acct := id.NewAccountID()

	err := e.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
		Provider:  "stripe",
		EventID:   "evt_1",
		AccountID: acct,
		PackSlug:  "starter",
	})
	require.NoError(t, err)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	txns, err := e.Transactions(ctx, acct, credit.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.Equal(t, credit.KindPurchase, txns[0].Kind)
	require.Equal(t, "evt_1", txns[0].Reference)
}

func TestHandleConfirmedPurchaseRedelivery(t *testing.T) {
	ctx := context.Background()
	dups := &duplicateCounter{}
	e := newTestEngine(t, arena.WithHook(dups))
	seedPack(t, e)
	acct := id.NewAccountID()

	evt := &payment.ConfirmedPurchase{
		Provider:  "stripe",
		EventID:   "evt_redelivered",
		AccountID: acct,
		PackSlug:  "starter",
	}

	require.NoError(t, e.HandleConfirmedPurchase(ctx, evt))

	// Redelivery is absorbed: nil error, no second credit.
	require.NoError(t, e.HandleConfirmedPurchase(ctx, evt))
	require.NoError(t, e.HandleConfirmedPurchase(ctx, evt))

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	txns, err := e.Transactions(ctx, acct, credit.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	require.Equal(t, int64(2), dups.count.Load())
}

func TestHandleConfirmedPurchaseConcurrentRedelivery(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	seedPack(t, e)
	acct := id.NewAccountID()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
				Provider:  "stripe",
				EventID:   "evt_race",
				AccountID: acct,
				PackSlug:  "starter",
			})
		}(i)
	}
	wg.Wait()

	// Every delivery acknowledges; the account is credited exactly once.
	for _, err := range errs {
		require.NoError(t, err)
	}

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}

func TestHandleConfirmedPurchasePriceIDResolution(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	seedPack(t, e)
	require.NoError(t, e.CreatePack(ctx, &pack.Pack{
		Slug:            "season",
		Name:            "Season Pack",
		Credits:         100,
		Price:           types.USD(1999),
		ProviderPriceID: "price_season",
	}))
	acct := id.NewAccountID()

	// The price id wins over a conflicting slug.
	err := e.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
		Provider:  "stripe",
		EventID:   "evt_price",
		AccountID: acct,
		PackSlug:  "starter",
		PriceID:   "price_season",
	})
	require.NoError(t, err)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestHandleConfirmedPurchaseInvalidEvents(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	seedPack(t, e)
	acct := id.NewAccountID()

	err := e.HandleConfirmedPurchase(ctx, nil)
	require.ErrorIs(t, err, arena.ErrInvalidEvent)

	// Missing event id.
	err = e.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
		Provider:  "stripe",
		AccountID: acct,
		PackSlug:  "starter",
	})
	require.ErrorIs(t, err, arena.ErrInvalidEvent)

	// Unknown pack can never be applied.
	err = e.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
		Provider:  "stripe",
		EventID:   "evt_unknown",
		AccountID: acct,
		PackSlug:  "no-such-pack",
	})
	require.ErrorIs(t, err, arena.ErrInvalidEvent)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)
}

func TestArchivedPackStillResolves(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	p := seedPack(t, e)
	acct := id.NewAccountID()

	require.NoError(t, e.ArchivePack(ctx, p.ID))

	got, err := e.GetPack(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, pack.StatusArchived, got.Status)

	// Archived packs are hidden from the active listing.
	active, err := e.ListPacks(ctx, pack.ListOpts{Status: pack.StatusActive})
	require.NoError(t, err)
	require.Empty(t, active)

	// A late confirmation for an archived pack still credits.
	err = e.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
		Provider:  "stripe",
		EventID:   "evt_late",
		AccountID: acct,
		PackSlug:  "starter",
	})
	require.NoError(t, err)

	balance, err := e.Balance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}

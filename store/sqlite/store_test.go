package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/arena"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/store/sqlite"
	"github.com/xraph/arena/tournament"
	"github.com/xraph/arena/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTxn(accountID id.AccountID, delta int64, kind credit.Kind, reference string) *credit.Transaction {
	return &credit.Transaction{
		Entity:    types.NewEntity(),
		ID:        id.NewTransactionID(),
		AccountID: accountID,
		Delta:     delta,
		Kind:      kind,
		Reference: reference,
	}
}

func seedTournament(t *testing.T, s *sqlite.Store, ownerID id.AccountID) *tournament.Tournament {
	t.Helper()
	tour := &tournament.Tournament{
		Entity:  types.NewEntity(),
		ID:      id.NewTournamentID(),
		OwnerID: ownerID,
		Title:   "Finals",
		Status:  tournament.StatusIdle,
	}
	require.NoError(t, s.CreateTournament(context.Background(), tour))
	return tour
}

func newSession(tournamentID id.TournamentID) *tournament.Session {
	now := time.Now().UTC()
	return &tournament.Session{
		Entity:       types.NewEntity(),
		ID:           id.NewSessionID(),
		TournamentID: tournamentID,
		StreamKey:    "key",
		Status:       tournament.SessionLive,
		LastSeenAt:   now,
		StartedAt:    now,
	}
}

func TestFirstCreditCreatesAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acct := id.NewAccountID()

	// The very first write an account sees is a credit; the account row
	// must come into existence as part of it.
	balance, err := s.ApplyTransaction(ctx, newTxn(acct, 10, credit.KindPurchase, "evt_first"))
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	got, err := s.GetAccount(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Balance)

	balance, err = s.GetBalance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)
}

func TestDuplicateReference(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acct := id.NewAccountID()

	_, err := s.ApplyTransaction(ctx, newTxn(acct, 10, credit.KindPurchase, "evt_1"))
	require.NoError(t, err)

	// Redelivery with the same (kind, reference) is rejected without side
	// effects.
	_, err = s.ApplyTransaction(ctx, newTxn(acct, 10, credit.KindPurchase, "evt_1"))
	require.ErrorIs(t, err, arena.ErrDuplicateReference)

	balance, err := s.GetBalance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(10), balance)

	txns, err := s.ListTransactions(ctx, acct, credit.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	// Same reference under a different kind is a distinct operation.
	_, err = s.ApplyTransaction(ctx, newTxn(acct, -1, credit.KindConsumption, "evt_1"))
	require.NoError(t, err)

	// Empty references never collide.
	_, err = s.ApplyTransaction(ctx, newTxn(acct, 1, credit.KindPurchase, ""))
	require.NoError(t, err)
	_, err = s.ApplyTransaction(ctx, newTxn(acct, 1, credit.KindPurchase, ""))
	require.NoError(t, err)
}

func TestDuplicateWinsOverInsufficient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acct := id.NewAccountID()

	_, err := s.ApplyTransaction(ctx, newTxn(acct, 1, credit.KindPurchase, "evt_fund"))
	require.NoError(t, err)
	_, err = s.ApplyTransaction(ctx, newTxn(acct, -1, credit.KindConsumption, "ses_1"))
	require.NoError(t, err)

	// The balance is now zero, so the redelivered debit is both a duplicate
	// and insufficient. The idempotent no-op contract takes precedence.
	_, err = s.ApplyTransaction(ctx, newTxn(acct, -1, credit.KindConsumption, "ses_1"))
	require.ErrorIs(t, err, arena.ErrDuplicateReference)
}

func TestInsufficientBalanceAtomicity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	acct := id.NewAccountID()

	_, err := s.ApplyTransaction(ctx, newTxn(acct, 5, credit.KindPurchase, ""))
	require.NoError(t, err)

	_, err = s.ApplyTransaction(ctx, newTxn(acct, -6, credit.KindConsumption, "ses_over"))
	require.ErrorIs(t, err, arena.ErrInsufficientCredits)

	// The rejected debit left nothing behind: no transaction row, no
	// balance change, and the reference stays free for a later retry.
	balance, err := s.GetBalance(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, int64(5), balance)

	txns, err := s.ListTransactions(ctx, acct, credit.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	_, err = s.ApplyTransaction(ctx, newTxn(acct, -5, credit.KindConsumption, "ses_over"))
	require.NoError(t, err)
}

func TestStartBroadcastPairing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := id.NewAccountID()
	tour := seedTournament(t, s, owner)

	_, err := s.ApplyTransaction(ctx, newTxn(owner, 2, credit.KindPurchase, ""))
	require.NoError(t, err)

	sess := newSession(tour.ID)
	debit := newTxn(owner, -1, credit.KindConsumption, tour.ID.String()+":start")
	balance, err := s.StartBroadcast(ctx, sess, debit)
	require.NoError(t, err)
	require.Equal(t, int64(1), balance)

	got, err := s.GetTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StatusLive, got.Status)
	require.NotNil(t, got.StartedAt)

	active, err := s.GetActiveSession(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, active.ID)

	// Starting a live tournament fails before any ledger write.
	_, err = s.StartBroadcast(ctx, newSession(tour.ID),
		newTxn(owner, -1, credit.KindConsumption, tour.ID.String()+":start"))
	require.ErrorIs(t, err, arena.ErrTournamentLive)

	balance, err = s.GetBalance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(1), balance)
}

func TestStartBroadcastInsufficientLeavesIdle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := id.NewAccountID()
	tour := seedTournament(t, s, owner)

	sess := newSession(tour.ID)
	debit := newTxn(owner, -1, credit.KindConsumption, tour.ID.String()+":start")
	_, err := s.StartBroadcast(ctx, sess, debit)
	require.ErrorIs(t, err, arena.ErrInsufficientCredits)

	// The whole pairing rolled back: idle tournament, no session, no
	// transaction rows.
	got, err := s.GetTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StatusIdle, got.Status)

	_, err = s.GetActiveSession(ctx, tour.ID)
	require.ErrorIs(t, err, arena.ErrSessionNotFound)

	txns, err := s.ListTransactions(ctx, owner, credit.ListOpts{})
	require.NoError(t, err)
	require.Empty(t, txns)
}

func TestEndBroadcast(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := id.NewAccountID()
	tour := seedTournament(t, s, owner)

	_, err := s.ApplyTransaction(ctx, newTxn(owner, 1, credit.KindPurchase, ""))
	require.NoError(t, err)

	sess := newSession(tour.ID)
	_, err = s.StartBroadcast(ctx, sess,
		newTxn(owner, -1, credit.KindConsumption, tour.ID.String()+":start"))
	require.NoError(t, err)

	endedAt := time.Now().UTC()
	require.NoError(t, s.EndBroadcast(ctx, sess.ID, tour.ID, endedAt))

	got, err := s.GetTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StatusEnded, got.Status)
	require.NotNil(t, got.EndedAt)

	ended, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.SessionEnded, ended.Status)

	// A second end distinguishes already-ended from missing.
	err = s.EndBroadcast(ctx, sess.ID, tour.ID, endedAt)
	require.ErrorIs(t, err, arena.ErrSessionEnded)
	err = s.EndBroadcast(ctx, id.NewSessionID(), tour.ID, endedAt)
	require.ErrorIs(t, err, arena.ErrSessionNotFound)

	err = s.TouchSession(ctx, sess.ID, 1, time.Now().UTC())
	require.ErrorIs(t, err, arena.ErrSessionEnded)
}

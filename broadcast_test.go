package arena_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/arena"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/tournament"
)

func TestStartBroadcast(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Friday Finals", "")
	require.NoError(t, err)
	require.Equal(t, tournament.StatusIdle, tour.Status)

	result, err := e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), result.CreditsRemaining)
	require.Equal(t, tournament.SessionLive, result.Session.Status)
	require.NotEmpty(t, result.Session.StreamKey)

	// Status flipped and the session is discoverable.
	tour, err = e.GetTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StatusLive, tour.Status)
	require.NotNil(t, tour.StartedAt)

	sess, err := e.ActiveSession(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, result.Session.ID, sess.ID)

	// The admission debit landed on the ledger.
	balance, err := e.Balance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(4), balance)
}

func TestStartBroadcastInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()

	tour, err := e.CreateTournament(ctx, owner, "Broke Bracket", "")
	require.NoError(t, err)

	_, err = e.StartBroadcast(ctx, owner, tour.ID)
	require.ErrorIs(t, err, arena.ErrInsufficientCredits)

	// Nothing moved: tournament stays idle, no session, no transactions.
	tour, err = e.GetTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StatusIdle, tour.Status)

	_, err = e.ActiveSession(ctx, tour.ID)
	require.ErrorIs(t, err, arena.ErrSessionNotFound)

	txns, err := e.Transactions(ctx, owner, credit.ListOpts{})
	require.NoError(t, err)
	require.Empty(t, txns)
}

func TestStartBroadcastAlreadyLive(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	_, err = e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)

	_, err = e.StartBroadcast(ctx, owner, tour.ID)
	require.ErrorIs(t, err, arena.ErrTournamentLive)

	// Only one admission was charged.
	balance, err := e.Balance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(4), balance)
}

func TestConcurrentStartsSingleWinner(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 100, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Race", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.StartBroadcast(ctx, owner, tour.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, arena.ErrTournamentLive)
		}
	}
	require.Equal(t, 1, succeeded)

	// Exactly one debit regardless of how many racers there were.
	balance, err := e.Balance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(99), balance)
}

func TestEndBroadcast(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	collaborator := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	_, err = e.InviteCollaborator(ctx, owner, tour.ID, collaborator)
	require.NoError(t, err)
	_, err = e.AcceptInvite(ctx, collaborator, tour.ID)
	require.NoError(t, err)

	result, err := e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)

	// Collaborators may start but not end.
	_, err = e.EndBroadcast(ctx, collaborator, tour.ID)
	require.ErrorIs(t, err, arena.ErrForbidden)

	sess, err := e.EndBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)
	require.Equal(t, result.Session.ID, sess.ID)
	require.Equal(t, tournament.SessionEnded, sess.Status)
	require.NotNil(t, sess.EndedAt)

	// Ending moves no credits.
	balance, err := e.Balance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(4), balance)

	tour, err = e.GetTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, tournament.StatusEnded, tour.Status)

	// Ending again: the tournament is no longer live.
	_, err = e.EndBroadcast(ctx, owner, tour.ID)
	require.ErrorIs(t, err, arena.ErrTournamentNotLive)
}

func TestEndedTournamentNeverRestarts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "One Shot", "")
	require.NoError(t, err)

	_, err = e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)
	_, err = e.EndBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)

	_, err = e.StartBroadcast(ctx, owner, tour.ID)
	require.ErrorIs(t, err, arena.ErrTournamentEnded)
}

func TestHeartbeat(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)
	result, err := e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)

	require.NoError(t, e.Heartbeat(ctx, result.Session.ID, 42))

	sess, err := e.ActiveSession(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, 42, sess.ViewerCount)

	err = e.Heartbeat(ctx, result.Session.ID, -1)
	var verr arena.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = e.EndBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)

	// Heartbeats against an ended session are rejected.
	err = e.Heartbeat(ctx, result.Session.ID, 10)
	require.ErrorIs(t, err, arena.ErrSessionEnded)

	err = e.Heartbeat(ctx, id.NewSessionID(), 1)
	require.ErrorIs(t, err, arena.ErrSessionNotFound)
}

func TestSweeperReapsStaleSessions(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t,
		arena.WithSessionTTL(30*time.Millisecond),
		arena.WithSweepInterval(10*time.Millisecond),
	)
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	owner := id.NewAccountID()
	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Ghost Stream", "")
	require.NoError(t, err)
	result, err := e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)

	// No heartbeats arrive; the sweeper force-ends the session.
	require.Eventually(t, func() bool {
		got, err := e.GetTournament(ctx, tour.ID)
		return err == nil && got.Status == tournament.StatusEnded
	}, 2*time.Second, 10*time.Millisecond)

	err = e.Heartbeat(ctx, result.Session.ID, 1)
	require.ErrorIs(t, err, arena.ErrSessionEnded)

	// Reaping moves no credits.
	balance, err := e.Balance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(4), balance)
}

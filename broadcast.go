package arena

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/tournament"
	"github.com/xraph/arena/types"
)

// ──────────────────────────────────────────────────
// Broadcast Lifecycle
// ──────────────────────────────────────────────────

// StartResult is returned from a successful broadcast start.
type StartResult struct {
	Session          *tournament.Session `json:"session"`
	CreditsRemaining int64               `json:"credits_remaining"`
}

// StartBroadcast takes a tournament live. The admission debit, the status
// flip, and the session creation commit as one store transaction: if the
// actor lacks credits, the tournament stays idle and no session exists.
//
// The debit reference "<tournamentID>:start" makes concurrent start attempts
// collapse to a single winner; losers observe the tournament as already live.
func (e *Engine) StartBroadcast(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID) (*StartResult, error) {
	caps, t, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.CanManage {
		return nil, ErrForbidden
	}

	switch t.Status {
	case tournament.StatusLive:
		return nil, ErrTournamentLive
	case tournament.StatusEnded:
		return nil, ErrTournamentEnded
	}

	now := time.Now().UTC()
	sess := &tournament.Session{
		Entity:       types.NewEntity(),
		ID:           id.NewSessionID(),
		TournamentID: tournamentID,
		StreamKey:    uuid.NewString(),
		Status:       tournament.SessionLive,
		LastSeenAt:   now,
		StartedAt:    now,
	}
	debit := &credit.Transaction{
		Entity:      types.NewEntity(),
		ID:          id.NewTransactionID(),
		AccountID:   actorID,
		Delta:       -e.broadcastCost,
		Kind:        credit.KindConsumption,
		Reference:   tournamentID.String() + ":start",
		Description: "broadcast admission: " + t.Title,
	}

	newBalance, err := e.store.StartBroadcast(ctx, sess, debit)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientCredits):
			e.hooks.EmitDebitDeclined(ctx, actorID, e.broadcastCost, debit.Reference)
			return nil, err
		case errors.Is(err, ErrDuplicateReference):
			// A concurrent start won the race.
			return nil, ErrTournamentLive
		}
		return nil, err
	}

	e.logger.Info("broadcast started",
		"tournament_id", tournamentID,
		"session_id", sess.ID,
		"account_id", actorID,
		"credits_remaining", newBalance,
	)
	e.hooks.EmitBalanceChanged(ctx, debit, newBalance)
	e.hooks.EmitBroadcastStarted(ctx, sess)

	return &StartResult{Session: sess, CreditsRemaining: newBalance}, nil
}

// EndBroadcast ends a live broadcast. Only the owner may end one; ending
// moves no credits, and a tournament that has ended never goes live again.
func (e *Engine) EndBroadcast(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID) (*tournament.Session, error) {
	caps, t, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.IsOwner {
		return nil, ErrForbidden
	}
	if t.Status != tournament.StatusLive {
		return nil, ErrTournamentNotLive
	}

	sess, err := e.store.GetActiveSession(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	endedAt := time.Now().UTC()
	if err := e.store.EndBroadcast(ctx, sess.ID, tournamentID, endedAt); err != nil {
		return nil, err
	}
	sess.Status = tournament.SessionEnded
	sess.EndedAt = &endedAt

	e.logger.Info("broadcast ended",
		"tournament_id", tournamentID,
		"session_id", sess.ID,
		"account_id", actorID,
	)
	e.hooks.EmitBroadcastEnded(ctx, sess)

	return sess, nil
}

// Heartbeat refreshes a live session's liveness and records the current
// viewer count. Heartbeats against an ended session fail with
// ErrSessionEnded.
func (e *Engine) Heartbeat(ctx context.Context, sessionID id.SessionID, viewerCount int) error {
	if viewerCount < 0 {
		return ValidationError{Field: "viewer_count", Message: "must not be negative"}
	}
	return e.store.TouchSession(ctx, sessionID, viewerCount, time.Now().UTC())
}

// ActiveSession returns the live session bound to a tournament, or
// ErrSessionNotFound when no broadcast is running.
func (e *Engine) ActiveSession(ctx context.Context, tournamentID id.TournamentID) (*tournament.Session, error) {
	return e.store.GetActiveSession(ctx, tournamentID)
}

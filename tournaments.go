package arena

import (
	"context"

	"github.com/xraph/arena/id"
	"github.com/xraph/arena/tournament"
	"github.com/xraph/arena/types"
)

// ──────────────────────────────────────────────────
// Tournament Management
// ──────────────────────────────────────────────────

// CreateTournament creates a new tournament owned by the caller.
func (e *Engine) CreateTournament(ctx context.Context, ownerID id.AccountID, title, description string) (*tournament.Tournament, error) {
	if ownerID.IsNil() {
		return nil, ErrUnauthenticated
	}
	if title == "" {
		return nil, ValidationError{Field: "title", Message: "must not be empty"}
	}

	t := &tournament.Tournament{
		Entity:      types.NewEntity(),
		ID:          id.NewTournamentID(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      tournament.StatusIdle,
	}

	if err := e.store.CreateTournament(ctx, t); err != nil {
		return nil, err
	}

	e.hooks.EmitTournamentCreated(ctx, t)
	return t, nil
}

// GetTournament retrieves a tournament by ID.
func (e *Engine) GetTournament(ctx context.Context, tournamentID id.TournamentID) (*tournament.Tournament, error) {
	return e.store.GetTournament(ctx, tournamentID)
}

// ListTournaments lists tournaments owned by the given account.
func (e *Engine) ListTournaments(ctx context.Context, ownerID id.AccountID, opts tournament.ListOpts) ([]*tournament.Tournament, error) {
	return e.store.ListTournaments(ctx, ownerID, opts)
}

// DeleteTournament removes a tournament. Only the owner may delete, and
// never while a broadcast is live.
func (e *Engine) DeleteTournament(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID) error {
	caps, t, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	if err != nil {
		return err
	}
	if !caps.CanDelete {
		return ErrForbidden
	}
	if t.Status == tournament.StatusLive {
		return ErrTournamentLive
	}

	if err := e.store.DeleteTournament(ctx, tournamentID); err != nil {
		return err
	}

	e.hooks.EmitTournamentDeleted(ctx, tournamentID)
	return nil
}

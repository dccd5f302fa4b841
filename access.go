package arena

import (
	"context"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/tournament"
	"github.com/xraph/arena/types"
)

// ──────────────────────────────────────────────────
// Permission Resolution
// ──────────────────────────────────────────────────

// Capabilities resolves what the actor may do to the tournament. It is a
// pure read: the result is always a complete capability set, and resolution
// fails outright if the tournament does not exist.
func (e *Engine) Capabilities(ctx context.Context, tournamentID id.TournamentID, actorID id.AccountID) (collab.CapabilitySet, error) {
	caps, _, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	return caps, err
}

// resolveCapabilities loads the tournament alongside the capability set so
// callers that need both do a single lookup.
func (e *Engine) resolveCapabilities(ctx context.Context, tournamentID id.TournamentID, actorID id.AccountID) (collab.CapabilitySet, *tournament.Tournament, error) {
	if actorID.IsNil() {
		return collab.CapabilitySet{}, nil, ErrUnauthenticated
	}

	t, err := e.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return collab.CapabilitySet{}, nil, err
	}

	isOwner := t.OwnerID == actorID

	isCollaborator := false
	if !isOwner {
		c, err := e.store.GetCollaboration(ctx, tournamentID, actorID)
		if err != nil && !IsNotFound(err) {
			return collab.CapabilitySet{}, nil, err
		}
		isCollaborator = c != nil && c.Status == collab.StatusAccepted
	}

	return collab.Resolve(isOwner, isCollaborator), t, nil
}

// ──────────────────────────────────────────────────
// Collaboration Management
// ──────────────────────────────────────────────────

// InviteCollaborator grants pending collaboration on a tournament. Only the
// owner may invite.
func (e *Engine) InviteCollaborator(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID, accountID id.AccountID) (*collab.Collaboration, error) {
	caps, t, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.CanInvite {
		return nil, ErrForbidden
	}
	if accountID.IsNil() || accountID == t.OwnerID {
		return nil, ErrInvalidInput
	}

	c := &collab.Collaboration{
		Entity:       types.NewEntity(),
		ID:           id.NewCollaborationID(),
		TournamentID: tournamentID,
		AccountID:    accountID,
		GrantedBy:    actorID,
		Status:       collab.StatusPending,
	}

	if err := e.store.CreateCollaboration(ctx, c); err != nil {
		return nil, err
	}

	e.hooks.EmitCollaborationInvited(ctx, c)
	return c, nil
}

// AcceptInvite marks a pending collaboration as accepted. Only the invited
// account may accept.
func (e *Engine) AcceptInvite(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID) (*collab.Collaboration, error) {
	if actorID.IsNil() {
		return nil, ErrUnauthenticated
	}

	c, err := e.store.GetCollaboration(ctx, tournamentID, actorID)
	if err != nil {
		return nil, err
	}
	if c.Status == collab.StatusAccepted {
		return c, nil
	}

	c.Status = collab.StatusAccepted
	c.Touch()
	if err := e.store.UpdateCollaboration(ctx, c); err != nil {
		return nil, err
	}

	e.hooks.EmitCollaborationAccepted(ctx, c)
	return c, nil
}

// RevokeCollaborator removes a collaboration. Only the owner may revoke.
// Revocation hard-deletes the grant.
func (e *Engine) RevokeCollaborator(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID, accountID id.AccountID) error {
	caps, _, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	if err != nil {
		return err
	}
	if !caps.CanInvite {
		return ErrForbidden
	}

	if err := e.store.DeleteCollaboration(ctx, tournamentID, accountID); err != nil {
		return err
	}

	e.hooks.EmitCollaborationRevoked(ctx, tournamentID, accountID)
	return nil
}

// ListCollaborators lists collaborations on a tournament. Owners and
// collaborators may list; everyone else is refused.
func (e *Engine) ListCollaborators(ctx context.Context, actorID id.AccountID, tournamentID id.TournamentID) ([]*collab.Collaboration, error) {
	caps, _, err := e.resolveCapabilities(ctx, tournamentID, actorID)
	if err != nil {
		return nil, err
	}
	if !caps.CanManage {
		return nil, ErrForbidden
	}
	return e.store.ListCollaborations(ctx, tournamentID)
}

package arena_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/arena"
	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/id"
)

func TestCapabilities(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	stranger := id.NewAccountID()

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	caps, err := e.Capabilities(ctx, tour.ID, owner)
	require.NoError(t, err)
	require.True(t, caps.IsOwner)
	require.True(t, caps.CanManage)
	require.True(t, caps.CanDelete)
	require.True(t, caps.CanInvite)

	caps, err = e.Capabilities(ctx, tour.ID, stranger)
	require.NoError(t, err)
	require.False(t, caps.IsOwner)
	require.False(t, caps.CanManage)
	require.False(t, caps.CanDelete)
	require.False(t, caps.CanInvite)

	// Resolution fails outright for missing tournaments and actors.
	_, err = e.Capabilities(ctx, id.NewTournamentID(), owner)
	require.ErrorIs(t, err, arena.ErrTournamentNotFound)
	_, err = e.Capabilities(ctx, tour.ID, id.AccountID{})
	require.ErrorIs(t, err, arena.ErrUnauthenticated)
}

func TestCollaborationLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	invitee := id.NewAccountID()

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	c, err := e.InviteCollaborator(ctx, owner, tour.ID, invitee)
	require.NoError(t, err)
	require.Equal(t, collab.StatusPending, c.Status)
	require.Equal(t, owner, c.GrantedBy)

	// Pending invites grant nothing yet.
	caps, err := e.Capabilities(ctx, tour.ID, invitee)
	require.NoError(t, err)
	require.False(t, caps.CanManage)

	// Only the invited account may accept.
	_, err = e.AcceptInvite(ctx, id.NewAccountID(), tour.ID)
	require.ErrorIs(t, err, arena.ErrCollaborationNotFound)

	c, err = e.AcceptInvite(ctx, invitee, tour.ID)
	require.NoError(t, err)
	require.Equal(t, collab.StatusAccepted, c.Status)

	// Accepting twice is idempotent.
	c, err = e.AcceptInvite(ctx, invitee, tour.ID)
	require.NoError(t, err)
	require.Equal(t, collab.StatusAccepted, c.Status)

	// Accepted collaborators can manage but not delete or invite.
	caps, err = e.Capabilities(ctx, tour.ID, invitee)
	require.NoError(t, err)
	require.True(t, caps.CanManage)
	require.False(t, caps.CanDelete)
	require.False(t, caps.CanInvite)
}

func TestInviteRules(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	invitee := id.NewAccountID()

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	// Non-owners cannot invite, even accepted collaborators.
	_, err = e.InviteCollaborator(ctx, invitee, tour.ID, id.NewAccountID())
	require.ErrorIs(t, err, arena.ErrForbidden)

	_, err = e.InviteCollaborator(ctx, owner, tour.ID, invitee)
	require.NoError(t, err)
	_, err = e.AcceptInvite(ctx, invitee, tour.ID)
	require.NoError(t, err)

	_, err = e.InviteCollaborator(ctx, invitee, tour.ID, id.NewAccountID())
	require.ErrorIs(t, err, arena.ErrForbidden)

	// The owner cannot be invited to their own tournament.
	_, err = e.InviteCollaborator(ctx, owner, tour.ID, owner)
	require.ErrorIs(t, err, arena.ErrInvalidInput)

	// Re-inviting an existing collaborator is rejected.
	_, err = e.InviteCollaborator(ctx, owner, tour.ID, invitee)
	require.ErrorIs(t, err, arena.ErrCollaborationExists)
}

func TestRevokeCollaborator(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	invitee := id.NewAccountID()

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	_, err = e.InviteCollaborator(ctx, owner, tour.ID, invitee)
	require.NoError(t, err)
	_, err = e.AcceptInvite(ctx, invitee, tour.ID)
	require.NoError(t, err)

	// Collaborators cannot revoke, not even themselves.
	err = e.RevokeCollaborator(ctx, invitee, tour.ID, invitee)
	require.ErrorIs(t, err, arena.ErrForbidden)

	err = e.RevokeCollaborator(ctx, owner, tour.ID, invitee)
	require.NoError(t, err)

	// The revoked collaborator loses CanManage immediately.
	caps, err := e.Capabilities(ctx, tour.ID, invitee)
	require.NoError(t, err)
	require.False(t, caps.CanManage)

	err = e.RevokeCollaborator(ctx, owner, tour.ID, invitee)
	require.ErrorIs(t, err, arena.ErrCollaborationNotFound)
}

func TestListCollaborators(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	invitee := id.NewAccountID()
	stranger := id.NewAccountID()

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	_, err = e.InviteCollaborator(ctx, owner, tour.ID, invitee)
	require.NoError(t, err)

	list, err := e.ListCollaborators(ctx, owner, tour.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = e.ListCollaborators(ctx, stranger, tour.ID)
	require.ErrorIs(t, err, arena.ErrForbidden)

	// Accepted collaborators may list.
	_, err = e.AcceptInvite(ctx, invitee, tour.ID)
	require.NoError(t, err)
	list, err = e.ListCollaborators(ctx, invitee, tour.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteTournament(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := id.NewAccountID()
	invitee := id.NewAccountID()

	_, err := e.Credit(ctx, owner, 5, "", "")
	require.NoError(t, err)

	tour, err := e.CreateTournament(ctx, owner, "Finals", "")
	require.NoError(t, err)

	_, err = e.InviteCollaborator(ctx, owner, tour.ID, invitee)
	require.NoError(t, err)
	_, err = e.AcceptInvite(ctx, invitee, tour.ID)
	require.NoError(t, err)

	// Collaborators cannot delete.
	err = e.DeleteTournament(ctx, invitee, tour.ID)
	require.ErrorIs(t, err, arena.ErrForbidden)

	// Live tournaments cannot be deleted.
	_, err = e.StartBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)
	err = e.DeleteTournament(ctx, owner, tour.ID)
	require.ErrorIs(t, err, arena.ErrTournamentLive)

	_, err = e.EndBroadcast(ctx, owner, tour.ID)
	require.NoError(t, err)
	err = e.DeleteTournament(ctx, owner, tour.ID)
	require.NoError(t, err)

	_, err = e.GetTournament(ctx, tour.ID)
	require.ErrorIs(t, err, arena.ErrTournamentNotFound)
}

package collab

import (
	"context"

	"github.com/xraph/arena/id"
)

// Store is the collaboration fragment of the unified store interface.
type Store interface {
	CreateCollaboration(ctx context.Context, c *Collaboration) error
	GetCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) (*Collaboration, error)
	UpdateCollaboration(ctx context.Context, c *Collaboration) error
	DeleteCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) error
	ListCollaborations(ctx context.Context, tournamentID id.TournamentID) ([]*Collaboration, error)
}

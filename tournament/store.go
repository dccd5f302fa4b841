package tournament

import (
	"context"
	"time"

	"github.com/xraph/arena/id"
)

// Store is the tournament/session fragment of the unified store interface.
type Store interface {
	CreateTournament(ctx context.Context, t *Tournament) error
	GetTournament(ctx context.Context, tournamentID id.TournamentID) (*Tournament, error)
	ListTournaments(ctx context.Context, ownerID id.AccountID, opts ListOpts) ([]*Tournament, error)
	DeleteTournament(ctx context.Context, tournamentID id.TournamentID) error

	GetSession(ctx context.Context, sessionID id.SessionID) (*Session, error)
	GetActiveSession(ctx context.Context, tournamentID id.TournamentID) (*Session, error)
	TouchSession(ctx context.Context, sessionID id.SessionID, viewerCount int, seenAt time.Time) error
	ListStaleSessions(ctx context.Context, cutoff time.Time) ([]*Session, error)
}

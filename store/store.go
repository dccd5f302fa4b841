// Package store defines the unified storage interface for Arena.
package store

import (
	"context"
	"time"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/tournament"
)

// Store is the unified storage interface for all Arena entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Three methods carry the atomicity contract the engine depends on:
//
//   - ApplyTransaction verifies the balance precondition, inserts the
//     transaction row, and updates the account balance as one unit.
//   - StartBroadcast applies the admission debit, flips the tournament live,
//     and creates the session as one unit. If any part fails, the account
//     keeps its credits and the tournament stays idle.
//   - EndBroadcast closes the session and marks the tournament ended as one
//     unit.
type Store interface {
	// Credit methods
	ApplyTransaction(ctx context.Context, txn *credit.Transaction) (newBalance int64, err error)
	GetAccount(ctx context.Context, accountID id.AccountID) (*credit.Account, error)
	GetBalance(ctx context.Context, accountID id.AccountID) (int64, error)
	ListTransactions(ctx context.Context, accountID id.AccountID, opts credit.ListOpts) ([]*credit.Transaction, error)

	// Tournament methods
	CreateTournament(ctx context.Context, t *tournament.Tournament) error
	GetTournament(ctx context.Context, tournamentID id.TournamentID) (*tournament.Tournament, error)
	ListTournaments(ctx context.Context, ownerID id.AccountID, opts tournament.ListOpts) ([]*tournament.Tournament, error)
	DeleteTournament(ctx context.Context, tournamentID id.TournamentID) error

	// Broadcast methods
	StartBroadcast(ctx context.Context, sess *tournament.Session, debit *credit.Transaction) (newBalance int64, err error)
	EndBroadcast(ctx context.Context, sessionID id.SessionID, tournamentID id.TournamentID, endedAt time.Time) error
	GetSession(ctx context.Context, sessionID id.SessionID) (*tournament.Session, error)
	GetActiveSession(ctx context.Context, tournamentID id.TournamentID) (*tournament.Session, error)
	TouchSession(ctx context.Context, sessionID id.SessionID, viewerCount int, seenAt time.Time) error
	ListStaleSessions(ctx context.Context, cutoff time.Time) ([]*tournament.Session, error)

	// Collaboration methods
	CreateCollaboration(ctx context.Context, c *collab.Collaboration) error
	GetCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) (*collab.Collaboration, error)
	UpdateCollaboration(ctx context.Context, c *collab.Collaboration) error
	DeleteCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) error
	ListCollaborations(ctx context.Context, tournamentID id.TournamentID) ([]*collab.Collaboration, error)

	// Pack methods
	CreatePack(ctx context.Context, p *pack.Pack) error
	GetPack(ctx context.Context, packID id.PackID) (*pack.Pack, error)
	GetPackBySlug(ctx context.Context, slug string) (*pack.Pack, error)
	GetPackByPriceID(ctx context.Context, priceID string) (*pack.Pack, error)
	ListPacks(ctx context.Context, opts pack.ListOpts) ([]*pack.Pack, error)
	UpdatePack(ctx context.Context, p *pack.Pack) error
	ArchivePack(ctx context.Context, packID id.PackID) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

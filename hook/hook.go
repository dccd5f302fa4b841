// Package hook provides the observer system for Arena. Hooks subscribe to
// ledger and lifecycle events without the engine taking a dependency on the
// subscribers — balance displays, audit trails, and metrics all attach here.
package hook

import (
	"context"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/tournament"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Hook
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnBalanceChanged fires after a transaction has been applied to an account.
// This is the change-notification surface for balance displays: consumers
// that would otherwise poll can subscribe here.
type OnBalanceChanged interface {
	Hook
	OnBalanceChanged(ctx context.Context, txn *credit.Transaction, newBalance int64) error
}

// OnDebitDeclined fires when a debit is rejected for insufficient credits.
type OnDebitDeclined interface {
	Hook
	OnDebitDeclined(ctx context.Context, accountID id.AccountID, amount int64, reference string) error
}

// ──────────────────────────────────────────────────
// Broadcast hooks
// ──────────────────────────────────────────────────

// OnBroadcastStarted fires after a tournament has gone live.
type OnBroadcastStarted interface {
	Hook
	OnBroadcastStarted(ctx context.Context, sess *tournament.Session) error
}

// OnBroadcastEnded fires after a broadcast has been ended by its owner.
type OnBroadcastEnded interface {
	Hook
	OnBroadcastEnded(ctx context.Context, sess *tournament.Session) error
}

// OnSessionReaped fires when the sweeper force-ends a stale session.
type OnSessionReaped interface {
	Hook
	OnSessionReaped(ctx context.Context, sess *tournament.Session) error
}

// ──────────────────────────────────────────────────
// Reconciliation hooks
// ──────────────────────────────────────────────────

// OnPurchaseApplied fires when a confirmed purchase has credited an account.
type OnPurchaseApplied interface {
	Hook
	OnPurchaseApplied(ctx context.Context, evt *payment.ConfirmedPurchase, txn *credit.Transaction) error
}

// OnDuplicateDelivery fires when a redelivered purchase confirmation is
// absorbed as a no-op.
type OnDuplicateDelivery interface {
	Hook
	OnDuplicateDelivery(ctx context.Context, evt *payment.ConfirmedPurchase) error
}

// ──────────────────────────────────────────────────
// Tournament hooks
// ──────────────────────────────────────────────────

// OnTournamentCreated fires after a tournament is created.
type OnTournamentCreated interface {
	Hook
	OnTournamentCreated(ctx context.Context, t *tournament.Tournament) error
}

// OnTournamentDeleted fires after a tournament is deleted.
type OnTournamentDeleted interface {
	Hook
	OnTournamentDeleted(ctx context.Context, tournamentID id.TournamentID) error
}

// ──────────────────────────────────────────────────
// Collaboration hooks
// ──────────────────────────────────────────────────

// OnCollaborationInvited fires when an owner invites a collaborator.
type OnCollaborationInvited interface {
	Hook
	OnCollaborationInvited(ctx context.Context, c *collab.Collaboration) error
}

// OnCollaborationAccepted fires when a collaborator accepts an invite.
type OnCollaborationAccepted interface {
	Hook
	OnCollaborationAccepted(ctx context.Context, c *collab.Collaboration) error
}

// OnCollaborationRevoked fires when an owner revokes a collaboration.
type OnCollaborationRevoked interface {
	Hook
	OnCollaborationRevoked(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) error
}

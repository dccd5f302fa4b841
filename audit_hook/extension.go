// Package audithook bridges Arena's hook system to an external audit trail.
//
// The extension subscribes to ledger, broadcast, payment, and collaboration
// events and forwards them to a Recorder as structured audit events. Recorder
// failures are logged and swallowed so that a broken audit sink never blocks
// the ledger.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/hook"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/tournament"
)

// Recorder receives audit events. Implementations typically persist events
// to an audit log service or append-only store.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id,omitempty"`
	Category   string         `json:"category"`
	Severity   string         `json:"severity"`
	Outcome    string         `json:"outcome"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Compile-time checks that Extension implements the hook interfaces.
var (
	_ hook.Hook                    = (*Extension)(nil)
	_ hook.OnBalanceChanged        = (*Extension)(nil)
	_ hook.OnDebitDeclined         = (*Extension)(nil)
	_ hook.OnBroadcastStarted      = (*Extension)(nil)
	_ hook.OnBroadcastEnded        = (*Extension)(nil)
	_ hook.OnSessionReaped         = (*Extension)(nil)
	_ hook.OnPurchaseApplied       = (*Extension)(nil)
	_ hook.OnDuplicateDelivery     = (*Extension)(nil)
	_ hook.OnTournamentCreated     = (*Extension)(nil)
	_ hook.OnTournamentDeleted     = (*Extension)(nil)
	_ hook.OnCollaborationInvited  = (*Extension)(nil)
	_ hook.OnCollaborationAccepted = (*Extension)(nil)
	_ hook.OnCollaborationRevoked  = (*Extension)(nil)
)

// Extension is an Arena hook that records audit events.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool
	logger   *slog.Logger
}

// New creates an audit hook backed by the given recorder.
// All actions are enabled by default.
func New(recorder Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: recorder,
		enabled:  make(map[string]bool),
		logger:   slog.Default(),
	}
	for _, action := range allActions() {
		e.enabled[action] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Hook.
func (e *Extension) Name() string { return "audit-hook" }

// record builds and dispatches an audit event. Recorder failures are logged
// and swallowed; an audit sink outage must not fail ledger operations.
func (e *Extension) record(ctx context.Context, action, severity, outcome, resource, resourceID, category string, reason string, kvPairs ...any) error {
	if !e.enabled[action] {
		return nil
	}

	event := &AuditEvent{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Category:   category,
		Severity:   severity,
		Outcome:    outcome,
		Reason:     reason,
	}

	if len(kvPairs) > 0 {
		event.Metadata = make(map[string]any, len(kvPairs)/2)
		for i := 0; i+1 < len(kvPairs); i += 2 {
			key, ok := kvPairs[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", kvPairs[i])
			}
			event.Metadata[key] = kvPairs[i+1]
		}
	}

	if err := e.recorder.Record(ctx, event); err != nil {
		e.logger.Warn("audit record failed",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.Any("error", err),
		)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Ledger events
// ──────────────────────────────────────────────────

// OnBalanceChanged records credit grants and consumptions.
func (e *Extension) OnBalanceChanged(ctx context.Context, txn *credit.Transaction, newBalance int64) error {
	action := ActionCreditGranted
	if txn.IsDebit() {
		action = ActionCreditConsumed
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, txn.ID.String(), CategoryLedger, "",
		"account_id", txn.AccountID.String(),
		"kind", string(txn.Kind),
		"delta", txn.Delta,
		"reference", txn.Reference,
		"new_balance", newBalance,
	)
}

// OnDebitDeclined records debits rejected for insufficient credits.
func (e *Extension) OnDebitDeclined(ctx context.Context, accountID id.AccountID, amount int64, reference string) error {
	return e.record(ctx, ActionDebitDeclined, SeverityWarning, OutcomeFailure,
		ResourceAccount, accountID.String(), CategoryLedger, "insufficient credits",
		"amount", amount,
		"reference", reference,
	)
}

// ──────────────────────────────────────────────────
// Broadcast events
// ──────────────────────────────────────────────────

// OnBroadcastStarted records a tournament going live.
func (e *Extension) OnBroadcastStarted(ctx context.Context, sess *tournament.Session) error {
	return e.record(ctx, ActionBroadcastStarted, SeverityInfo, OutcomeSuccess,
		ResourceSession, sess.ID.String(), CategoryBroadcast, "",
		"tournament_id", sess.TournamentID.String(),
	)
}

// OnBroadcastEnded records an owner-initiated broadcast end.
func (e *Extension) OnBroadcastEnded(ctx context.Context, sess *tournament.Session) error {
	return e.record(ctx, ActionBroadcastEnded, SeverityInfo, OutcomeSuccess,
		ResourceSession, sess.ID.String(), CategoryBroadcast, "",
		"tournament_id", sess.TournamentID.String(),
	)
}

// OnSessionReaped records a session force-ended by the sweeper.
func (e *Extension) OnSessionReaped(ctx context.Context, sess *tournament.Session) error {
	return e.record(ctx, ActionSessionReaped, SeverityWarning, OutcomeSuccess,
		ResourceSession, sess.ID.String(), CategoryBroadcast, "heartbeat deadline exceeded",
		"tournament_id", sess.TournamentID.String(),
		"last_seen_at", sess.LastSeenAt,
	)
}

// ──────────────────────────────────────────────────
// Payment events
// ──────────────────────────────────────────────────

// OnPurchaseApplied records a confirmed purchase crediting an account.
func (e *Extension) OnPurchaseApplied(ctx context.Context, evt *payment.ConfirmedPurchase, txn *credit.Transaction) error {
	return e.record(ctx, ActionPurchaseApplied, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, txn.ID.String(), CategoryPayment, "",
		"account_id", evt.AccountID.String(),
		"provider", evt.Provider,
		"event_id", evt.EventID,
		"credits", txn.Delta,
	)
}

// OnDuplicateDelivery records a redelivered purchase confirmation that was
// absorbed as a no-op.
func (e *Extension) OnDuplicateDelivery(ctx context.Context, evt *payment.ConfirmedPurchase) error {
	return e.record(ctx, ActionDuplicateDelivery, SeverityInfo, OutcomeSuccess,
		ResourceAccount, evt.AccountID.String(), CategoryPayment, "duplicate event id",
		"provider", evt.Provider,
		"event_id", evt.EventID,
	)
}

// ──────────────────────────────────────────────────
// Tournament events
// ──────────────────────────────────────────────────

// OnTournamentCreated records a new tournament.
func (e *Extension) OnTournamentCreated(ctx context.Context, t *tournament.Tournament) error {
	return e.record(ctx, ActionTournamentCreated, SeverityInfo, OutcomeSuccess,
		ResourceTournament, t.ID.String(), CategoryBroadcast, "",
		"owner_id", t.OwnerID.String(),
		"title", t.Title,
	)
}

// OnTournamentDeleted records a tournament deletion.
func (e *Extension) OnTournamentDeleted(ctx context.Context, tournamentID id.TournamentID) error {
	return e.record(ctx, ActionTournamentDeleted, SeverityInfo, OutcomeSuccess,
		ResourceTournament, tournamentID.String(), CategoryBroadcast, "")
}

// ──────────────────────────────────────────────────
// Collaboration events
// ──────────────────────────────────────────────────

// OnCollaborationInvited records a collaboration invite.
func (e *Extension) OnCollaborationInvited(ctx context.Context, c *collab.Collaboration) error {
	return e.record(ctx, ActionCollaborationInvited, SeverityInfo, OutcomeSuccess,
		ResourceCollaboration, c.ID.String(), CategoryAccess, "",
		"tournament_id", c.TournamentID.String(),
		"account_id", c.AccountID.String(),
		"granted_by", c.GrantedBy.String(),
	)
}

// OnCollaborationAccepted records an accepted invite.
func (e *Extension) OnCollaborationAccepted(ctx context.Context, c *collab.Collaboration) error {
	return e.record(ctx, ActionCollaborationAccepted, SeverityInfo, OutcomeSuccess,
		ResourceCollaboration, c.ID.String(), CategoryAccess, "",
		"tournament_id", c.TournamentID.String(),
		"account_id", c.AccountID.String(),
	)
}

// OnCollaborationRevoked records a revoked collaboration.
func (e *Extension) OnCollaborationRevoked(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) error {
	return e.record(ctx, ActionCollaborationRevoked, SeverityInfo, OutcomeSuccess,
		ResourceCollaboration, "", CategoryAccess, "",
		"tournament_id", tournamentID.String(),
		"account_id", accountID.String(),
	)
}

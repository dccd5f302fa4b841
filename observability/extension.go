// Package observability provides a metrics extension for Arena that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/hook"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/tournament"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ hook.Hook                    = (*MetricsExtension)(nil)
	_ hook.OnInit                  = (*MetricsExtension)(nil)
	_ hook.OnBalanceChanged        = (*MetricsExtension)(nil)
	_ hook.OnDebitDeclined         = (*MetricsExtension)(nil)
	_ hook.OnBroadcastStarted      = (*MetricsExtension)(nil)
	_ hook.OnBroadcastEnded        = (*MetricsExtension)(nil)
	_ hook.OnSessionReaped         = (*MetricsExtension)(nil)
	_ hook.OnPurchaseApplied       = (*MetricsExtension)(nil)
	_ hook.OnDuplicateDelivery     = (*MetricsExtension)(nil)
	_ hook.OnTournamentCreated     = (*MetricsExtension)(nil)
	_ hook.OnTournamentDeleted     = (*MetricsExtension)(nil)
	_ hook.OnCollaborationInvited  = (*MetricsExtension)(nil)
	_ hook.OnCollaborationAccepted = (*MetricsExtension)(nil)
	_ hook.OnCollaborationRevoked  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an Arena hook to automatically track ledger and
// broadcast metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Ledger metrics
	CreditsGranted   Counter
	CreditsConsumed  Counter
	DebitsDeclined   Counter
	TransactionDelta Histogram

	// Broadcast metrics
	BroadcastsStarted Counter
	BroadcastsEnded   Counter
	SessionsReaped    Counter
	SessionDuration   Histogram

	// Payment metrics
	PurchasesApplied    Counter
	DuplicateDeliveries Counter
	CreditsPurchased    Counter

	// Tournament metrics
	TournamentsCreated Counter
	TournamentsDeleted Counter

	// Collaboration metrics
	CollaborationsInvited  Counter
	CollaborationsAccepted Counter
	CollaborationsRevoked  Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Ledger metrics
		CreditsGranted:   factory.Counter("arena.credits.granted"),
		CreditsConsumed:  factory.Counter("arena.credits.consumed"),
		DebitsDeclined:   factory.Counter("arena.debits.declined"),
		TransactionDelta: factory.Histogram("arena.transaction.delta"),

		// Broadcast metrics
		BroadcastsStarted: factory.Counter("arena.broadcast.started"),
		BroadcastsEnded:   factory.Counter("arena.broadcast.ended"),
		SessionsReaped:    factory.Counter("arena.session.reaped"),
		SessionDuration:   factory.Histogram("arena.session.duration_seconds"),

		// Payment metrics
		PurchasesApplied:    factory.Counter("arena.purchase.applied"),
		DuplicateDeliveries: factory.Counter("arena.purchase.duplicate_deliveries"),
		CreditsPurchased:    factory.Counter("arena.purchase.credits"),

		// Tournament metrics
		TournamentsCreated: factory.Counter("arena.tournament.created"),
		TournamentsDeleted: factory.Counter("arena.tournament.deleted"),

		// Collaboration metrics
		CollaborationsInvited:  factory.Counter("arena.collaboration.invited"),
		CollaborationsAccepted: factory.Counter("arena.collaboration.accepted"),
		CollaborationsRevoked:  factory.Counter("arena.collaboration.revoked"),
	}
}

// Name implements hook.Hook.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements hook.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnBalanceChanged implements hook.OnBalanceChanged.
func (m *MetricsExtension) OnBalanceChanged(_ context.Context, txn *credit.Transaction, _ int64) error {
	if txn.IsDebit() {
		m.CreditsConsumed.Add(float64(txn.Amount()))
	} else {
		m.CreditsGranted.Add(float64(txn.Delta))
	}
	m.TransactionDelta.Observe(float64(txn.Delta))
	return nil
}

// OnDebitDeclined implements hook.OnDebitDeclined.
func (m *MetricsExtension) OnDebitDeclined(_ context.Context, _ id.AccountID, _ int64, _ string) error {
	m.DebitsDeclined.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Broadcast hooks
// ──────────────────────────────────────────────────

// OnBroadcastStarted implements hook.OnBroadcastStarted.
func (m *MetricsExtension) OnBroadcastStarted(_ context.Context, _ *tournament.Session) error {
	m.BroadcastsStarted.Inc()
	return nil
}

// OnBroadcastEnded implements hook.OnBroadcastEnded.
func (m *MetricsExtension) OnBroadcastEnded(_ context.Context, sess *tournament.Session) error {
	m.BroadcastsEnded.Inc()
	m.observeDuration(sess)
	return nil
}

// OnSessionReaped implements hook.OnSessionReaped.
func (m *MetricsExtension) OnSessionReaped(_ context.Context, sess *tournament.Session) error {
	m.SessionsReaped.Inc()
	m.observeDuration(sess)
	return nil
}

func (m *MetricsExtension) observeDuration(sess *tournament.Session) {
	if sess.EndedAt == nil {
		return
	}
	elapsed := sess.EndedAt.Sub(sess.StartedAt)
	if elapsed < 0 {
		elapsed = time.Duration(0)
	}
	m.SessionDuration.Observe(elapsed.Seconds())
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPurchaseApplied implements hook.OnPurchaseApplied.
func (m *MetricsExtension) OnPurchaseApplied(_ context.Context, _ *payment.ConfirmedPurchase, txn *credit.Transaction) error {
	m.PurchasesApplied.Inc()
	m.CreditsPurchased.Add(float64(txn.Delta))
	return nil
}

// OnDuplicateDelivery implements hook.OnDuplicateDelivery.
func (m *MetricsExtension) OnDuplicateDelivery(_ context.Context, _ *payment.ConfirmedPurchase) error {
	m.DuplicateDeliveries.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Tournament hooks
// ──────────────────────────────────────────────────

// OnTournamentCreated implements hook.OnTournamentCreated.
func (m *MetricsExtension) OnTournamentCreated(_ context.Context, _ *tournament.Tournament) error {
	m.TournamentsCreated.Inc()
	return nil
}

// OnTournamentDeleted implements hook.OnTournamentDeleted.
func (m *MetricsExtension) OnTournamentDeleted(_ context.Context, _ id.TournamentID) error {
	m.TournamentsDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Collaboration hooks
// ──────────────────────────────────────────────────

// OnCollaborationInvited implements hook.OnCollaborationInvited.
func (m *MetricsExtension) OnCollaborationInvited(_ context.Context, _ *collab.Collaboration) error {
	m.CollaborationsInvited.Inc()
	return nil
}

// OnCollaborationAccepted implements hook.OnCollaborationAccepted.
func (m *MetricsExtension) OnCollaborationAccepted(_ context.Context, _ *collab.Collaboration) error {
	m.CollaborationsAccepted.Inc()
	return nil
}

// OnCollaborationRevoked implements hook.OnCollaborationRevoked.
func (m *MetricsExtension) OnCollaborationRevoked(_ context.Context, _ id.TournamentID, _ id.AccountID) error {
	m.CollaborationsRevoked.Inc()
	return nil
}

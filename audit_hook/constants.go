package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionCreditGranted  = "credit.granted"
	ActionCreditConsumed = "credit.consumed"
	ActionDebitDeclined  = "debit.declined"

	// Broadcast actions
	ActionBroadcastStarted = "broadcast.started"
	ActionBroadcastEnded   = "broadcast.ended"
	ActionSessionReaped    = "session.reaped"

	// Reconciliation actions
	ActionPurchaseApplied   = "purchase.applied"
	ActionDuplicateDelivery = "purchase.duplicate_delivery"

	// Tournament actions
	ActionTournamentCreated = "tournament.created"
	ActionTournamentDeleted = "tournament.deleted"

	// Collaboration actions
	ActionCollaborationInvited  = "collaboration.invited"
	ActionCollaborationAccepted = "collaboration.accepted"
	ActionCollaborationRevoked  = "collaboration.revoked"
)

// Resource constants for audit events.
const (
	ResourceAccount       = "account"
	ResourceTransaction   = "transaction"
	ResourceTournament    = "tournament"
	ResourceSession       = "session"
	ResourceCollaboration = "collaboration"
)

// Category constants for audit events.
const (
	CategoryLedger    = "ledger"
	CategoryBroadcast = "broadcast"
	CategoryPayment   = "payment"
	CategoryAccess    = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

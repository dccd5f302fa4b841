package audithook

import "log/slog"

// Option configures the audit hook extension.
type Option func(*Extension)

// WithLogger sets the logger used to report recorder failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEnabledActions restricts auditing to the given actions only.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, a := range actions {
			e.enabled[a] = true
		}
	}
}

// WithDisabledActions disables auditing of the given actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		for _, a := range actions {
			e.enabled[a] = false
		}
	}
}

// allActions returns every audit action the extension can emit.
func allActions() []string {
	return []string{
		ActionCreditGranted,
		ActionCreditConsumed,
		ActionDebitDeclined,
		ActionBroadcastStarted,
		ActionBroadcastEnded,
		ActionSessionReaped,
		ActionPurchaseApplied,
		ActionDuplicateDelivery,
		ActionTournamentCreated,
		ActionTournamentDeleted,
		ActionCollaborationInvited,
		ActionCollaborationAccepted,
		ActionCollaborationRevoked,
	}
}

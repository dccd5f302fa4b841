package hook

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/tournament"
)

// Registry manages all registered hooks and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	// Type-cached hook lists for efficient dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onBalanceChanged        []OnBalanceChanged
	onDebitDeclined         []OnDebitDeclined
	onBroadcastStarted      []OnBroadcastStarted
	onBroadcastEnded        []OnBroadcastEnded
	onSessionReaped         []OnSessionReaped
	onPurchaseApplied       []OnPurchaseApplied
	onDuplicateDelivery     []OnDuplicateDelivery
	onTournamentCreated     []OnTournamentCreated
	onTournamentDeleted     []OnTournamentDeleted
	onCollaborationInvited  []OnCollaborationInvited
	onCollaborationAccepted []OnCollaborationAccepted
	onCollaborationRevoked  []OnCollaborationRevoked
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a hook to the registry and caches its interfaces.
func (r *Registry) Register(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("hook: duplicate registration: %s", h.Name())
		}
	}

	r.hooks = append(r.hooks, h)

	// Type-switch to cache interfaces
	if v, ok := h.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := h.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := h.(OnBalanceChanged); ok {
		r.onBalanceChanged = append(r.onBalanceChanged, v)
	}
	if v, ok := h.(OnDebitDeclined); ok {
		r.onDebitDeclined = append(r.onDebitDeclined, v)
	}
	if v, ok := h.(OnBroadcastStarted); ok {
		r.onBroadcastStarted = append(r.onBroadcastStarted, v)
	}
	if v, ok := h.(OnBroadcastEnded); ok {
		r.onBroadcastEnded = append(r.onBroadcastEnded, v)
	}
	if v, ok := h.(OnSessionReaped); ok {
		r.onSessionReaped = append(r.onSessionReaped, v)
	}
	if v, ok := h.(OnPurchaseApplied); ok {
		r.onPurchaseApplied = append(r.onPurchaseApplied, v)
	}
	if v, ok := h.(OnDuplicateDelivery); ok {
		r.onDuplicateDelivery = append(r.onDuplicateDelivery, v)
	}
	if v, ok := h.(OnTournamentCreated); ok {
		r.onTournamentCreated = append(r.onTournamentCreated, v)
	}
	if v, ok := h.(OnTournamentDeleted); ok {
		r.onTournamentDeleted = append(r.onTournamentDeleted, v)
	}
	if v, ok := h.(OnCollaborationInvited); ok {
		r.onCollaborationInvited = append(r.onCollaborationInvited, v)
	}
	if v, ok := h.(OnCollaborationAccepted); ok {
		r.onCollaborationAccepted = append(r.onCollaborationAccepted, v)
	}
	if v, ok := h.(OnCollaborationRevoked); ok {
		r.onCollaborationRevoked = append(r.onCollaborationRevoked, v)
	}

	r.logger.Info("hook registered",
		"name", h.Name(),
		"interfaces", r.getImplementedInterfaces(h),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the hook.
func (r *Registry) getImplementedInterfaces(h Hook) []string {
	var interfaces []string
	v := reflect.TypeOf(h)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnBalanceChanged)(nil)).Elem(), "OnBalanceChanged")
	checkInterface(reflect.TypeOf((*OnDebitDeclined)(nil)).Elem(), "OnDebitDeclined")
	checkInterface(reflect.TypeOf((*OnBroadcastStarted)(nil)).Elem(), "OnBroadcastStarted")
	checkInterface(reflect.TypeOf((*OnBroadcastEnded)(nil)).Elem(), "OnBroadcastEnded")
	checkInterface(reflect.TypeOf((*OnSessionReaped)(nil)).Elem(), "OnSessionReaped")
	checkInterface(reflect.TypeOf((*OnPurchaseApplied)(nil)).Elem(), "OnPurchaseApplied")
	checkInterface(reflect.TypeOf((*OnDuplicateDelivery)(nil)).Elem(), "OnDuplicateDelivery")
	checkInterface(reflect.TypeOf((*OnTournamentCreated)(nil)).Elem(), "OnTournamentCreated")
	checkInterface(reflect.TypeOf((*OnTournamentDeleted)(nil)).Elem(), "OnTournamentDeleted")
	checkInterface(reflect.TypeOf((*OnCollaborationInvited)(nil)).Elem(), "OnCollaborationInvited")
	checkInterface(reflect.TypeOf((*OnCollaborationAccepted)(nil)).Elem(), "OnCollaborationAccepted")
	checkInterface(reflect.TypeOf((*OnCollaborationRevoked)(nil)).Elem(), "OnCollaborationRevoked")

	return interfaces
}

// Get returns a hook by name.
func (r *Registry) Get(name string) Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// List returns all registered hooks.
func (r *Registry) List() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Hook, len(r.hooks))
	copy(result, r.hooks)
	return result
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all hooks that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("hook OnInit failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all hooks that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("hook OnShutdown failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitBalanceChanged calls OnBalanceChanged for all hooks that implement it.
func (r *Registry) EmitBalanceChanged(ctx context.Context, txn *credit.Transaction, newBalance int64) {
	r.mu.RLock()
	hooks := r.onBalanceChanged
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnBalanceChanged(ctx, txn, newBalance)
		}); err != nil {
			r.logger.Warn("hook OnBalanceChanged failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitDebitDeclined calls OnDebitDeclined for all hooks that implement it.
func (r *Registry) EmitDebitDeclined(ctx context.Context, accountID id.AccountID, amount int64, reference string) {
	r.mu.RLock()
	hooks := r.onDebitDeclined
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnDebitDeclined(ctx, accountID, amount, reference)
		}); err != nil {
			r.logger.Warn("hook OnDebitDeclined failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitBroadcastStarted calls OnBroadcastStarted for all hooks that implement it.
func (r *Registry) EmitBroadcastStarted(ctx context.Context, sess *tournament.Session) {
	r.mu.RLock()
	hooks := r.onBroadcastStarted
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnBroadcastStarted(ctx, sess)
		}); err != nil {
			r.logger.Warn("hook OnBroadcastStarted failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitBroadcastEnded calls OnBroadcastEnded for all hooks that implement it.
func (r *Registry) EmitBroadcastEnded(ctx context.Context, sess *tournament.Session) {
	r.mu.RLock()
	hooks := r.onBroadcastEnded
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnBroadcastEnded(ctx, sess)
		}); err != nil {
			r.logger.Warn("hook OnBroadcastEnded failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitSessionReaped calls OnSessionReaped for all hooks that implement it.
func (r *Registry) EmitSessionReaped(ctx context.Context, sess *tournament.Session) {
	r.mu.RLock()
	hooks := r.onSessionReaped
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnSessionReaped(ctx, sess)
		}); err != nil {
			r.logger.Warn("hook OnSessionReaped failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitPurchaseApplied calls OnPurchaseApplied for all hooks that implement it.
func (r *Registry) EmitPurchaseApplied(ctx context.Context, evt *payment.ConfirmedPurchase, txn *credit.Transaction) {
	r.mu.RLock()
	hooks := r.onPurchaseApplied
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnPurchaseApplied(ctx, evt, txn)
		}); err != nil {
			r.logger.Warn("hook OnPurchaseApplied failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitDuplicateDelivery calls OnDuplicateDelivery for all hooks that implement it.
func (r *Registry) EmitDuplicateDelivery(ctx context.Context, evt *payment.ConfirmedPurchase) {
	r.mu.RLock()
	hooks := r.onDuplicateDelivery
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnDuplicateDelivery(ctx, evt)
		}); err != nil {
			r.logger.Warn("hook OnDuplicateDelivery failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitTournamentCreated calls OnTournamentCreated for all hooks that implement it.
func (r *Registry) EmitTournamentCreated(ctx context.Context, t *tournament.Tournament) {
	r.mu.RLock()
	hooks := r.onTournamentCreated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnTournamentCreated(ctx, t)
		}); err != nil {
			r.logger.Warn("hook OnTournamentCreated failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitTournamentDeleted calls OnTournamentDeleted for all hooks that implement it.
func (r *Registry) EmitTournamentDeleted(ctx context.Context, tournamentID id.TournamentID) {
	r.mu.RLock()
	hooks := r.onTournamentDeleted
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnTournamentDeleted(ctx, tournamentID)
		}); err != nil {
			r.logger.Warn("hook OnTournamentDeleted failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitCollaborationInvited calls OnCollaborationInvited for all hooks that implement it.
func (r *Registry) EmitCollaborationInvited(ctx context.Context, c *collab.Collaboration) {
	r.mu.RLock()
	hooks := r.onCollaborationInvited
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnCollaborationInvited(ctx, c)
		}); err != nil {
			r.logger.Warn("hook OnCollaborationInvited failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitCollaborationAccepted calls OnCollaborationAccepted for all hooks that implement it.
func (r *Registry) EmitCollaborationAccepted(ctx context.Context, c *collab.Collaboration) {
	r.mu.RLock()
	hooks := r.onCollaborationAccepted
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnCollaborationAccepted(ctx, c)
		}); err != nil {
			r.logger.Warn("hook OnCollaborationAccepted failed", "hook", h.Name(), "error", err)
		}
	}
}

// EmitCollaborationRevoked calls OnCollaborationRevoked for all hooks that implement it.
func (r *Registry) EmitCollaborationRevoked(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) {
	r.mu.RLock()
	hooks := r.onCollaborationRevoked
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnCollaborationRevoked(ctx, tournamentID, accountID)
		}); err != nil {
			r.logger.Warn("hook OnCollaborationRevoked failed", "hook", h.Name(), "error", err)
		}
	}
}

// callWithTimeout guards the engine against a misbehaving hook.
func (r *Registry) callWithTimeout(ctx context.Context, hookName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("hook timeout: %s", hookName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

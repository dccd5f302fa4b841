package arena

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/arena/hook"
	"github.com/xraph/arena/store"
	"github.com/xraph/arena/tournament"
)

// Engine is the main broadcasting engine.
type Engine struct {
	store  store.Store
	hooks  *hook.Registry
	logger *slog.Logger

	// Background workers
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	broadcastCost int64
	sessionTTL    time.Duration
	sweepInterval time.Duration
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		hooks:         hook.NewRegistry(),
		logger:        slog.Default(),
		stopChan:      make(chan struct{}),
		broadcastCost: 1,
		sessionTTL:    90 * time.Second,
		sweepInterval: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.hooks.WithLogger(logger)
	}
}

// WithHook registers a hook.
func WithHook(h hook.Hook) Option {
	return func(e *Engine) {
		_ = e.hooks.Register(h) //nolint:errcheck // best-effort hook registration during init
	}
}

// WithBroadcastCost sets the flat credit cost of going live.
func WithBroadcastCost(cost int64) Option {
	return func(e *Engine) {
		if cost > 0 {
			e.broadcastCost = cost
		}
	}
}

// WithSessionTTL sets how long a session may go without a heartbeat before
// the sweeper force-ends it.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.sessionTTL = ttl
		}
	}
}

// WithSweepInterval sets how often the sweeper scans for stale sessions.
func WithSweepInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.sweepInterval = interval
		}
	}
}

// Hooks exposes the hook registry.
func (e *Engine) Hooks() *hook.Registry {
	return e.hooks
}

// Start begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	// Migrate database
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize hooks
	e.hooks.EmitInit(ctx, e)

	// Start the stale-session sweeper
	e.wg.Add(1)
	go e.sweepWorker(ctx)

	e.logger.Info("arena started",
		"broadcast_cost", e.broadcastCost,
		"session_ttl", e.sessionTTL,
		"sweep_interval", e.sweepInterval,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.hooks.EmitShutdown(ctx)

	return e.store.Close()
}

// sweepWorker force-ends broadcasts whose sessions stopped heartbeating.
func (e *Engine) sweepWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepStaleSessions(ctx)
		}
	}
}

func (e *Engine) sweepStaleSessions(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-e.sessionTTL)

	stale, err := e.store.ListStaleSessions(ctx, cutoff)
	if err != nil {
		e.logger.Warn("stale session scan failed", "error", err)
		return
	}

	for _, sess := range stale {
		endedAt := time.Now().UTC()
		if err := e.store.EndBroadcast(ctx, sess.ID, sess.TournamentID, endedAt); err != nil {
			// A concurrent owner end wins; anything else is worth logging.
			if !IsNotFound(err) && !IsInvalidState(err) {
				e.logger.Warn("stale session reap failed",
					"session_id", sess.ID,
					"tournament_id", sess.TournamentID,
					"error", err,
				)
			}
			continue
		}

		sess.Status = tournament.SessionEnded
		sess.EndedAt = &endedAt
		e.logger.Info("stale session reaped",
			"session_id", sess.ID,
			"tournament_id", sess.TournamentID,
			"last_seen_at", sess.LastSeenAt,
		)
		e.hooks.EmitSessionReaped(ctx, sess)
	}
}

package extension

import (
	"time"

	"github.com/xraph/arena"
	"github.com/xraph/arena/hook"
	"github.com/xraph/arena/store"
)

// Option configures the Arena Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithArenaOption passes an arena.Option through to the underlying engine.
func WithArenaOption(opt arena.Option) Option {
	return func(e *Extension) {
		e.arenaOpts = append(e.arenaOpts, opt)
	}
}

// WithHook registers an arena hook.
func WithHook(h hook.Hook) Option {
	return func(e *Extension) {
		e.arenaOpts = append(e.arenaOpts, arena.WithHook(h))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for arena routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithBroadcastCost sets the flat credit cost of starting a broadcast.
func WithBroadcastCost(cost int64) Option {
	return func(e *Extension) { e.config.BroadcastCost = cost }
}

// WithSessionTTL sets the heartbeat deadline for live sessions.
func WithSessionTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.SessionTTL = d }
}

// WithSweepInterval sets how often the sweeper scans for stale sessions.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.SweepInterval = d }
}

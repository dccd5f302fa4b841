package extension

import "time"

// Config holds the Arena extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.arena" or "arena" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for arena routes (default: "/arena").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// BroadcastCost is the flat credit cost of starting a broadcast
	// (default: 1).
	BroadcastCost int64 `json:"broadcast_cost" mapstructure:"broadcast_cost" yaml:"broadcast_cost"`

	// SessionTTL is how long a session may go without a heartbeat before
	// the sweeper force-ends it (default: 90s).
	SessionTTL time.Duration `json:"session_ttl" mapstructure:"session_ttl" yaml:"session_ttl"`

	// SweepInterval is how often the sweeper scans for stale sessions
	// (default: 30s).
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval" yaml:"sweep_interval"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BroadcastCost: 1,
		SessionTTL:    90 * time.Second,
		SweepInterval: 30 * time.Second,
	}
}

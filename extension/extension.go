// Package extension provides the Forge extension adapter for Arena.
//
// It implements the forge.Extension interface to integrate Arena
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.arena" or "arena" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/arena"
	"github.com/xraph/arena/store"
	"github.com/xraph/arena/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "arena"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Credit-gated live tournament broadcasting engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Arena as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *arena.Engine
	store     store.Store
	arenaOpts []arena.Option
}

// New creates a new Arena Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Arena engine.
// This is nil until Register is called.
func (e *Extension) Engine() *arena.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := e.buildEngineOpts()

	e.engine = arena.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*arena.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("arena: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("arena: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs arena.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []arena.Option {
	opts := make([]arena.Option, 0, len(e.arenaOpts)+3)

	if e.config.BroadcastCost > 0 {
		opts = append(opts, arena.WithBroadcastCost(e.config.BroadcastCost))
	}
	if e.config.SessionTTL > 0 {
		opts = append(opts, arena.WithSessionTTL(e.config.SessionTTL))
	}
	if e.config.SweepInterval > 0 {
		opts = append(opts, arena.WithSweepInterval(e.config.SweepInterval))
	}

	// Append any pass-through arena options.
	opts = append(opts, e.arenaOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("arena: configuration is required but not found in config files; " +
				"ensure 'extensions.arena' or 'arena' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("arena: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("broadcast_cost", e.config.BroadcastCost),
		forge.F("session_ttl", e.config.SessionTTL),
		forge.F("sweep_interval", e.config.SweepInterval),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.arena" first (namespaced pattern).
	if cm.IsSet("extensions.arena") {
		if err := cm.Bind("extensions.arena", &cfg); err == nil {
			e.Logger().Debug("arena: loaded config from file",
				forge.F("key", "extensions.arena"),
			)
			return cfg, true
		}
		e.Logger().Warn("arena: failed to bind extensions.arena config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "arena" key.
	if cm.IsSet("arena") {
		if err := cm.Bind("arena", &cfg); err == nil {
			e.Logger().Debug("arena: loaded config from file",
				forge.F("key", "arena"),
			)
			return cfg, true
		}
		e.Logger().Warn("arena: failed to bind arena config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BroadcastCost == 0 {
		cfg.BroadcastCost = defaults.BroadcastCost
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.BroadcastCost == 0 && programmaticConfig.BroadcastCost != 0 {
		yamlConfig.BroadcastCost = programmaticConfig.BroadcastCost
	}
	if yamlConfig.SessionTTL == 0 && programmaticConfig.SessionTTL != 0 {
		yamlConfig.SessionTTL = programmaticConfig.SessionTTL
	}
	if yamlConfig.SweepInterval == 0 && programmaticConfig.SweepInterval != 0 {
		yamlConfig.SweepInterval = programmaticConfig.SweepInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}

// Package extension provides the Forge extension adapter for the registry.
//
// It implements the forge.Extension interface to integrate the NFT ledger
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.nftledger" or
// "nftledger" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/store"
	"github.com/xraph/nftledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "nftledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Embeddable non-fungible token registry"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the NFT ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *nftledger.Ledger
	store      store.Store
	ledgerOpts []nftledger.Option
}

// New creates a new registry Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *nftledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
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

	// Build ledger options from resolved config.
	opts := e.buildLedgerOpts()

	eng := nftledger.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*nftledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("nftledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
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
		return errors.New("nftledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs nftledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []nftledger.Option {
	opts := make([]nftledger.Option, 0, len(e.ledgerOpts)+3)

	// DisableMigrate only skips schema migration; the engine still
	// initializes plugins and runs the journal worker.
	if e.config.DisableMigrate {
		opts = append(opts, nftledger.WithDisableMigrate())
	}

	// Apply config-derived options.
	if e.config.EventBatchSize > 0 || e.config.EventFlushInterval > 0 {
		batchSize := e.config.EventBatchSize
		flushInterval := e.config.EventFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.EventBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.EventFlushInterval
		}
		opts = append(opts, nftledger.WithEventLogConfig(batchSize, flushInterval))
	}

	if e.config.URIStrategy != "" {
		opts = append(opts, nftledger.WithURIStrategy(e.config.URIStrategy))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("nftledger: configuration is required but not found in config files; " +
				"ensure 'extensions.nftledger' or 'nftledger' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("nftledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("event_batch_size", e.config.EventBatchSize),
		forge.F("event_flush_interval", e.config.EventFlushInterval),
		forge.F("uri_strategy", e.config.URIStrategy),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.nftledger" first (namespaced pattern).
	if cm.IsSet("extensions.nftledger") {
		if err := cm.Bind("extensions.nftledger", &cfg); err == nil {
			e.Logger().Debug("nftledger: loaded config from file",
				forge.F("key", "extensions.nftledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("nftledger: failed to bind extensions.nftledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "nftledger" key.
	if cm.IsSet("nftledger") {
		if err := cm.Bind("nftledger", &cfg); err == nil {
			e.Logger().Debug("nftledger: loaded config from file",
				forge.F("key", "nftledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("nftledger: failed to bind nftledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.EventBatchSize == 0 {
		cfg.EventBatchSize = defaults.EventBatchSize
	}
	if cfg.EventFlushInterval == 0 {
		cfg.EventFlushInterval = defaults.EventFlushInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.URIStrategy == "" && programmaticConfig.URIStrategy != "" {
		yamlConfig.URIStrategy = programmaticConfig.URIStrategy
	}
	if yamlConfig.GroveDatabase == "" && programmaticConfig.GroveDatabase != "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.EventBatchSize == 0 && programmaticConfig.EventBatchSize != 0 {
		yamlConfig.EventBatchSize = programmaticConfig.EventBatchSize
	}
	if yamlConfig.EventFlushInterval == 0 && programmaticConfig.EventFlushInterval != 0 {
		yamlConfig.EventFlushInterval = programmaticConfig.EventFlushInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}

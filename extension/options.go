package extension

import (
	"time"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/plugin"
	"github.com/xraph/nftledger/store"
)

// Option configures the registry Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a nftledger.Option through to the underlying engine.
func WithLedgerOption(opt nftledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, nftledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithEventBatchSize sets the number of journal events to buffer before flushing.
func WithEventBatchSize(size int) Option {
	return func(e *Extension) { e.config.EventBatchSize = size }
}

// WithEventFlushInterval sets how frequently the journal buffer is flushed.
func WithEventFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.EventFlushInterval = d }
}

// WithURIStrategy names a registered URIResolver plugin to consult for
// token metadata URIs.
func WithURIStrategy(name string) Option {
	return func(e *Extension) { e.config.URIStrategy = name }
}

package extension

import "time"

// Config holds the registry extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.nftledger" or "nftledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start. Plugin
	// initialization and the journal worker still run.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// EventBatchSize is the number of journal events to buffer before
	// flushing to the store (default: 100).
	EventBatchSize int `json:"event_batch_size" mapstructure:"event_batch_size" yaml:"event_batch_size"`

	// EventFlushInterval is how frequently the journal buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	EventFlushInterval time.Duration `json:"event_flush_interval" mapstructure:"event_flush_interval" yaml:"event_flush_interval"`

	// URIStrategy names a registered URIResolver plugin to consult when
	// resolving token metadata URIs. Empty uses the default rule.
	URIStrategy string `json:"uri_strategy" mapstructure:"uri_strategy" yaml:"uri_strategy"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, callers are expected to construct the matching store driver
	// (postgres/sqlite/mongo) and inject it with WithStore.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EventBatchSize:     100,
		EventFlushInterval: 5 * time.Second,
	}
}
